package policy

import (
	"fmt"
	"strings"
)

// PrintHumanReadable renders the planner tree as a stable, nested textual
// form: `<state id="…"><value>…</value><children>…</children></state>`,
// two-space indentation per nesting level, newline-separated. statePrinter
// renders a single configuration's value text.
func (p *Policy[C]) PrintHumanReadable(statePrinter StatePrinter[C]) (string, error) {
	if err := p.checkInitialized(); err != nil {
		return "", err
	}
	var b strings.Builder
	p.printState(&b, p.tree.RootIndex(), 0, statePrinter)
	return b.String(), nil
}

func (p *Policy[C]) printState(b *strings.Builder, index, depth int, statePrinter StatePrinter[C]) {
	indent := strings.Repeat("  ", depth)
	slot, err := p.tree.At(index)
	if err != nil {
		return
	}
	fmt.Fprintf(b, "%s<state id=\"%d\">\n", indent, slot.Value.StateID)
	fmt.Fprintf(b, "%s  <value>%s</value>\n", indent, statePrinter(slot.Value.Expectation))
	if len(slot.ChildIndices) == 0 {
		fmt.Fprintf(b, "%s  <children></children>\n", indent)
	} else {
		fmt.Fprintf(b, "%s  <children>\n", indent)
		for _, child := range slot.ChildIndices {
			p.printState(b, child, depth+2, statePrinter)
		}
		fmt.Fprintf(b, "%s  </children>\n", indent)
	}
	fmt.Fprintf(b, "%s</state>\n", indent)
}
