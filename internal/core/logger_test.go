package core

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	logger := NewLogger().SetOutput(&buf)
	assert.Equal(t, VerboseOff, logger.Verbose())

	logger.Info("Hidden")
	logger.Debugf("Hidden %d", 1)
	logger.Warnf("Missing %s", "file")
	assert.Equal(t, "Missing file\n", buf.String())

	buf.Reset()
	logger.SetVerboseLevel(VerboseDebug)
	logger.Infof("Reading %s...", "WikiIndex.otl")
	logger.Debug("Parsing")
	logger.Trace("Hidden")
	assert.Equal(t, "Reading WikiIndex.otl...\nParsing\n", buf.String())

	buf.Reset()
	logger.SetVerboseLevel(VerboseTrace)
	logger.Tracef("Ignoring %s", "archives/")
	assert.Equal(t, "Ignoring archives/\n", buf.String())
}
