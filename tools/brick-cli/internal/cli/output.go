package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

// printFields renders key/value pairs as a two column table.
func printFields(out io.Writer, fields [][2]string) {
	table := newTable(out, "Field", "Value")
	for _, f := range fields {
		table.Append([]string{f[0], f[1]})
	}
	table.Render()
}

func printSignature(out io.Writer, action string, sig solana.Signature) {
	fmt.Fprintf(out, "%s: %s\n", action, sig)
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func parseKey(name, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return key, nil
}

// parseOptionalKey returns the zero key for an empty value.
func parseOptionalKey(name, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, nil
	}
	return parseKey(name, value)
}

// keyFlag reads a base58 public key flag. Optional flags left empty return
// the zero key.
func keyFlag(cmd *cobra.Command, name string, required bool) (solana.PublicKey, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if value == "" && required {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	return parseOptionalKey(name, value)
}
