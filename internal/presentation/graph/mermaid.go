package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/scenario"
)

// GraphOverlay contains live chain data to visualize on the graph.
type GraphOverlay struct {
	// Cursors maps a chain id to the step it is currently at.
	Cursors map[string]int
}

// OverlayFromInfos builds an overlay from registry snapshots.
func OverlayFromInfos(infos []domain.ChainInfo) *GraphOverlay {
	o := &GraphOverlay{Cursors: make(map[string]int, len(infos))}
	for _, info := range infos {
		if info.State == domain.StateRunning {
			o.Cursors[info.ID] = info.Cursor
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a scenario.
// Each chain is a subgraph. It applies semantic styling:
// - Wait: ([Stadium])
// - Play: [[Subroutine]]
// - Embed: {{Hexagon}}, with a dotted edge to the embedded chain
// - Default: [Rectangle]
// Sequential chains link their steps in order; parallel chains fan out from a fork
// node and join at a done node. A sequential group links each chain to the next.
func GenerateMermaid(doc *scenario.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	g := &generator{sb: &sb}
	var top []string
	for i, spec := range doc.Chains {
		top = append(top, g.chain(spec, fmt.Sprintf("chain%d", i), false))
	}

	if doc.Group == scenario.GroupSequential {
		for i := 1; i < len(top); i++ {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", top[i-1], top[i]))
		}
	}

	if overlay != nil && len(overlay.Cursors) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range g.order {
			if cursor, ok := overlay.Cursors[g.names[id]]; ok {
				sb.WriteString(fmt.Sprintf("    class %s_%d current;\n", id, cursor))
			}
		}
	}

	return sb.String()
}

type generator struct {
	sb    *strings.Builder
	order []string          // Subgraph ids in render order
	names map[string]string // Subgraph id -> chain id
}

// chain writes spec as a subgraph and returns the subgraph id. Embedded chains always
// run in parallel.
func (g *generator) chain(spec scenario.ChainSpec, fallback string, embedded bool) string {
	name := spec.ID
	if name == "" {
		name = fallback
	}
	id := sanitizeMermaidID(name)
	if g.names == nil {
		g.names = make(map[string]string)
	}
	g.names[id] = name
	g.order = append(g.order, id)

	mode := spec.Mode
	switch {
	case embedded:
		mode = domain.ModeParallel
	case mode == "":
		mode = domain.ModeSequential
	}

	var embeds []string
	fmt.Fprintf(g.sb, "    subgraph %s[\"%s (%s)\"]\n", id, escape(name), mode)
	for i, step := range spec.Steps {
		opener, closer, label := shape(step)
		fmt.Fprintf(g.sb, "        %s_%d%s\"%s\"%s\n", id, i, opener, escape(label), closer)
	}

	if mode == domain.ModeParallel {
		fmt.Fprintf(g.sb, "        %s_fork{{\"fork\"}}\n", id)
		fmt.Fprintf(g.sb, "        %s_join{{\"done\"}}\n", id)
		for i := range spec.Steps {
			fmt.Fprintf(g.sb, "        %s_fork --> %s_%d --> %s_join\n", id, id, i, id)
		}
	} else {
		for i := 1; i < len(spec.Steps); i++ {
			fmt.Fprintf(g.sb, "        %s_%d --> %s_%d\n", id, i-1, id, i)
		}
	}
	g.sb.WriteString("    end\n")

	for i, step := range spec.Steps {
		if step.Kind == scenario.KindEmbed && step.Embed != nil {
			sub := g.chain(*step.Embed, fmt.Sprintf("%s_embed%d", name, i), true)
			embeds = append(embeds, fmt.Sprintf("    %s_%d -.-> %s\n", id, i, sub))
		}
	}
	for _, e := range embeds {
		g.sb.WriteString(e)
	}
	return id
}

func shape(step scenario.StepSpec) (opener, closer, label string) {
	switch step.Kind {
	case scenario.KindWait:
		return "([", "])", "wait " + step.Wait.String()
	case scenario.KindPlay:
		return "[[", "]]", "play " + step.Play
	case scenario.KindEmbed:
		id := ""
		if step.Embed != nil {
			id = step.Embed.ID
		}
		return "{{", "}}", strings.TrimSpace("embed " + id)
	case scenario.KindCall:
		return "[/", "/]", "call " + step.Call
	case scenario.KindNoWait:
		return "[", "]", "nowait: " + step.NoWait
	default:
		return "[", "]", "log: " + step.Log
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
