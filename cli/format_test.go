package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	assert := assert.New(t)

	t.Run("format", func(t *testing.T) {
		table := newTable([]string{"ID", "NAME", "STATE"})
		table.addRow([]string{"1", "Excavator", "pending"})
		table.addRow([]string{"12", "Engineers", ""})

		expected := "" +
			"ID   NAME        STATE\n" +
			"--   ---------   -------\n" +
			"1    Excavator   pending\n" +
			"12   Engineers\n"

		assert.Equal(expected, table.format())
	})

	t.Run("limit", func(t *testing.T) {
		table := newTable([]string{"ID", "NAME"})
		table.limit(1, 10)
		table.addRow([]string{"1", "Well construction"})
		table.addRow([]string{"2", "Bridge"})

		expected := "" +
			"ID   NAME\n" +
			"--   ----------\n" +
			"1    Well co...\n" +
			"2    Bridge\n"

		assert.Equal(expected, table.format())
	})

	t.Run("no rows", func(t *testing.T) {
		table := newTable([]string{"ID", "NAME"})
		assert.Equal("ID   NAME\n--   ----\n", table.format())
	})
}

func TestFormatTime(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", formatTime(time.Time{}))

	v := time.Date(2026, 1, 1, 13, 30, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal("2026-01-01T12:30:00Z", formatTime(v))
}
