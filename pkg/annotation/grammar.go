// Package annotation parses the inline entity and relationship markup that
// model answers are written in.
//
// An entity is written as "[label ($N1)]" and a relationship as
// "[label ($H, $N1, $N2; $L, $N1, $N3)]". Parsing is tolerant: text that is not
// a closed, well formed annotation is ignored.
package annotation

import (
	"regexp"
	"strings"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

var (
	// label may itself contain parentheses, e.g. "[people (users) ($N5)]"
	reEntity = regexp.MustCompile(`\[([^\[\]]+?)\s*\(\s*(\$N\d+)\s*\)\]`)

	reRelationship = regexp.MustCompile(
		`\[([^\[\]]+?)\s*\(\s*(\$[HL]\s*,\s*\$N\d+\s*,\s*\$N\d+(?:\s*;\s*\$[HL]\s*,\s*\$N\d+\s*,\s*\$N\d+)*)\s*\)\]`,
	)
)

// Parse parses text into an AnnotatedText owned by the given answer object.
// The content is kept as is; ranges are computed on the closed part of it.
func Parse(text, ownerObjectID string) common.AnnotatedText {
	closed := StripUnterminated(text)
	return common.AnnotatedText{
		Content:      text,
		NodeEntities: ParseEntities(closed, ownerObjectID),
		EdgeEntities: ParseRelationships(closed, ownerObjectID),
	}
}

// ParseEntities extracts all closed entity annotations of text. Repeated
// mentions of one id are grouped into one NodeEntity in order of first
// appearance. The label of the first mention becomes the display label.
func ParseEntities(text, ownerObjectID string) []common.NodeEntity {
	entities := []common.NodeEntity{}
	index := map[string]int{}

	for _, m := range reEntity.FindAllStringSubmatchIndex(text, -1) {
		label := strings.TrimSpace(text[m[2]:m[3]])
		id := text[m[4]:m[5]]

		individual := common.NodeIndividual{
			ID:             id,
			AnswerObjectID: ownerObjectID,
			DisplayLabel:   label,
			OriginText:     text[m[0]:m[1]],
			OriginRange:    common.OriginRange{Start: m[0], End: m[1] - 1},
		}

		if i, ok := index[id]; ok {
			entities[i].Individuals = append(entities[i].Individuals, individual)
			continue
		}

		index[id] = len(entities)
		entities = append(entities, common.NodeEntity{
			ID:           id,
			DisplayLabel: label,
			Individuals:  []common.NodeIndividual{individual},
		})
	}

	return entities
}

// ParseRelationships extracts all closed relationship annotations of text.
// Pairs that reference unknown entity ids are kept.
func ParseRelationships(text, ownerObjectID string) []common.EdgeEntity {
	edges := []common.EdgeEntity{}

	for _, m := range reRelationship.FindAllStringSubmatchIndex(text, -1) {
		edges = append(edges, common.EdgeEntity{
			EdgeLabel:      strings.TrimSpace(text[m[2]:m[3]]),
			EdgePairs:      parsePairs(text[m[4]:m[5]]),
			OriginRange:    common.OriginRange{Start: m[0], End: m[1] - 1},
			OriginText:     text[m[0]:m[1]],
			AnswerObjectID: ownerObjectID,
		})
	}

	return edges
}

func parsePairs(s string) []common.EdgePair {
	groups := strings.Split(s, ";")
	pairs := make([]common.EdgePair, 0, len(groups))
	for _, g := range groups {
		parts := strings.Split(g, ",")
		if len(parts) != 3 {
			continue
		}
		saliency := common.SaliencyLow
		if strings.TrimSpace(parts[0]) == "$H" {
			saliency = common.SaliencyHigh
		}
		pairs = append(pairs, common.EdgePair{
			Saliency: saliency,
			SourceID: strings.TrimSpace(parts[1]),
			TargetID: strings.TrimSpace(parts[2]),
		})
	}
	return pairs
}

// IsDangling reports whether pair references an id that is not one of nodes.
func IsDangling(pair common.EdgePair, nodes []common.NodeEntity) bool {
	return !hasNode(nodes, pair.SourceID) || !hasNode(nodes, pair.TargetID)
}

func hasNode(nodes []common.NodeEntity, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// MaxEntityNumber returns the highest k of all "$N<k>" ids in text, or 0.
func MaxEntityNumber(text string) int {
	highest := 0
	for _, m := range reEntityID.FindAllStringSubmatch(text, -1) {
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		highest = max(highest, n)
	}
	return highest
}

var reEntityID = regexp.MustCompile(`\$N(\d+)`)
