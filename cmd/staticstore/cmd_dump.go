package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"staticstore/internal/hostfs"
	"staticstore/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle    = lipgloss.NewStyle().Width(20)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// dumpCmd prints the decoded slot file.
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every entry of the slot file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return renderSlot(cmd.OutOrStdout(), cfg.Location().Path())
	},
}

// renderSlot decodes the slot file at path and writes a table of its entries.
func renderSlot(w io.Writer, path string) error {
	data, err := hostfs.OS{}.ReadAll(path)
	if errors.Is(err, hostfs.ErrNotExist) {
		fmt.Fprintln(w, mutedStyle.Render(path+": nothing saved yet"))
		return nil
	}
	if err != nil {
		return err
	}
	st, err := store.Deserialize(data)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d entries)", path, st.Len())))
	b.WriteByte('\n')
	for _, key := range st.Keys() {
		v, _ := st.Get(key)
		b.WriteString(keyStyle.Render(string(key)))
		b.WriteString(v.String())
		b.WriteString(mutedStyle.Render("  " + v.Kind().String()))
		b.WriteByte('\n')
	}
	_, err = io.WriteString(w, b.String())
	return err
}
