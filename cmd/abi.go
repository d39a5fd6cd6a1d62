package cmd

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"

	"github.com/Mohsinsiddi/milknet/internal/milknet"
	"github.com/Mohsinsiddi/milknet/internal/ui"
)

var abiJSONFlag bool

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "Show the MilkNet contract interface",
	Long: `List the functions and events of the MilkNet contract with their
4-byte selectors and event topics. --json prints the raw ABI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if abiJSONFlag {
			fmt.Println(milknet.ABIJSON())
			return nil
		}
		parsed, err := milknet.ABI()
		if err != nil {
			return err
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Kind", Width: 8},
			{Title: "Selector", Width: 10},
			{Title: "Signature", Width: 56},
		})

		names := make([]string, 0, len(parsed.Methods))
		for name := range parsed.Methods {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m := parsed.Methods[name]
			kind := "view"
			if !m.IsConstant() {
				kind = "write"
				if m.IsPayable() {
					kind = "payable"
				}
			}
			t.AddRow(ui.Row{kind, computeSelector(m.Sig), m.Sig})
		}

		events := make([]string, 0, len(parsed.Events))
		for name := range parsed.Events {
			events = append(events, name)
		}
		sort.Strings(events)
		for _, name := range events {
			ev := parsed.Events[name]
			t.AddRow(ui.Row{"event", computeSelector(ev.Sig), ev.Sig})
		}

		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d functions, %d events", len(names), len(events))))
		return nil
	},
}

// keccak returns the Keccak-256 hash of sig.
func keccak(sig string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return h.Sum(nil)
}

// computeSelector returns the 4-byte selector of a canonical signature.
func computeSelector(sig string) string {
	return "0x" + hex.EncodeToString(keccak(normalizeSignature(sig))[:4])
}

// computeEventTopic returns the full topic hash of an event signature.
func computeEventTopic(sig string) string {
	return "0x" + hex.EncodeToString(keccak(normalizeSignature(sig)))
}

// normalizeSignature removes parameter names, keeping only types.
// "placeOrder(uint256 batchId, uint256 quantity)" → "placeOrder(uint256,uint256)"
func normalizeSignature(sig string) string {
	parenIdx := strings.Index(sig, "(")
	if parenIdx < 0 || !strings.HasSuffix(sig, ")") {
		return sig
	}
	name := strings.TrimSpace(sig[:parenIdx])
	paramStr := sig[parenIdx+1 : len(sig)-1]
	if strings.TrimSpace(paramStr) == "" {
		return name + "()"
	}

	var types []string
	for _, p := range strings.Split(paramStr, ",") {
		if parts := strings.Fields(p); len(parts) > 0 {
			types = append(types, parts[0])
		}
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

func init() {
	abiCmd.Flags().BoolVar(&abiJSONFlag, "json", false, "print the raw ABI JSON")
}
