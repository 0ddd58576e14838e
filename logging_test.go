package dataframe

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"www.velocidex.com/golang/dataframe/utils"
)

type logWriter struct {
	io.Writer
	logs []string
}

func (self *logWriter) Write(b []byte) (int, error) {
	self.logs = append(self.logs, string(b))
	return self.Writer.Write(b)
}

func (self *logWriter) Contains(t *testing.T, member string) {
	for _, line := range self.logs {
		if strings.Contains(line, member) {
			return
		}
	}

	assert.Fail(t, member)
}

func (self *logWriter) NotContains(t *testing.T, member string) {
	for _, line := range self.logs {
		if strings.Contains(line, member) {
			assert.Fail(t, member)
		}
	}
}

func TestLogging(t *testing.T) {
	df := makeTestFrame(t)
	logger := &logWriter{Writer: os.Stdout}
	df.SetLogger(log.New(logger, "Log: ", log.Ldate|log.Ltime|log.Lshortfile))

	count := df.Count()

	// Dump the few entries of the filtered subtree while the pass
	// runs.
	peek, err := df.Where("b1 < 3")
	assert.NoError(t, err)
	err = peek.Foreach(func(values ...Any) error {
		utils.Debug(values)
		return nil
	}, "b1", "tag")
	assert.NoError(t, err)

	value, err := count.Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, uint64(20), value)

	logger.Contains(t, "DEBUG:run")
	logger.Contains(t, "scanning 20 entries")
	logger.Contains(t, "completed in")
	logger.NotContains(t, "ERROR:")

	// Failed passes are logged with the failing entry.
	broken, err := df.Filter(func(values ...Any) (bool, error) {
		return false, errors.New("broken predicate")
	}, "b1")
	assert.NoError(t, err)

	_, err = broken.Count().Get(context.Background())
	assert.Error(t, err)

	logger.Contains(t, "ERROR:run")
	logger.Contains(t, "broken predicate")
}
