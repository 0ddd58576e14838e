package types

type Throttler interface {
	// This is called once per entry during a scan, it may sleep in
	// order to slow the pass down.
	ChargeOp()
	Close()
}
