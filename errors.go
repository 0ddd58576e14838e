package dataframe

import "fmt"

// A SchemaError reports a reference to a column which is not visible
// at the node where it was used - either the dataset does not have
// it, or it is a derived column defined in a different subtree.
type SchemaError struct {
	Op     string
	Column string
}

func (self *SchemaError) Error() string {
	return fmt.Sprintf("%s: column %q is not known here", self.Op, self.Column)
}

// A NameCollisionError reports a derived column whose name is already
// taken, either by a dataset column or by another derived column
// visible at the same node.
type NameCollisionError struct {
	Op   string
	Name string
}

func (self *NameCollisionError) Error() string {
	return fmt.Sprintf("%s: column %q already exists", self.Op, self.Name)
}

// A TypeMismatchError reports a value which could not be coerced to
// the type an action requires.
type TypeMismatchError struct {
	Column   string
	Expected string
	Got      string
}

func (self *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q: expected %s, got %s",
		self.Column, self.Expected, self.Got)
}

// An ExecutionError wraps a failure raised while scanning, annotated
// with the entry being processed when it happened. A failed run
// leaves all booked results untriggered so the run can be repeated.
type ExecutionError struct {
	Entry int64
	Err   error
}

func (self *ExecutionError) Error() string {
	return fmt.Sprintf("entry %d: %v", self.Entry, self.Err)
}

func (self *ExecutionError) Unwrap() error {
	return self.Err
}
