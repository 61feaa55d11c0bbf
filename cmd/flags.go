package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// flagReader copies the flags the user set into config fields. Flags left
// at their defaults do not override the file or the environment.
type flagReader struct {
	cmd *cobra.Command
}

func (f flagReader) changed(name string) bool {
	flag := f.cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

func (f flagReader) readString(name string, dst *string) {
	if f.changed(name) {
		*dst, _ = f.cmd.Flags().GetString(name)
	}
}

func (f flagReader) readInt(name string, dst *int) {
	if f.changed(name) {
		*dst, _ = f.cmd.Flags().GetInt(name)
	}
}

func (f flagReader) readInt64(name string, dst *int64) {
	if f.changed(name) {
		*dst, _ = f.cmd.Flags().GetInt64(name)
	}
}

func (f flagReader) readBool(name string, dst *bool) {
	if f.changed(name) {
		*dst, _ = f.cmd.Flags().GetBool(name)
	}
}

func (f flagReader) readDuration(name string, dst *time.Duration) {
	if f.changed(name) {
		*dst, _ = f.cmd.Flags().GetDuration(name)
	}
}
