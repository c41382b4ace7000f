package common

import (
	"slices"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"
)

// OriginRange is an inclusive byte span into a specific text buffer.
// End is the offset of the last byte, so Start <= End always holds.
type OriginRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r OriginRange) Len() int {
	return r.End - r.Start + 1
}

// Slice returns the text covered by the range, clamped to text.
func (r OriginRange) Slice(text string) string {
	start := max(r.Start, 0)
	end := min(r.End+1, len(text))
	if start >= end {
		return ""
	}
	return text[start:end]
}

// Within reports whether r lies entirely inside outer.
func (r OriginRange) Within(outer OriginRange) bool {
	return r.Start >= outer.Start && r.End <= outer.End
}

// Intersect returns the part of r inside outer. ok is false when they do
// not overlap.
func (r OriginRange) Intersect(outer OriginRange) (OriginRange, bool) {
	c := OriginRange{Start: max(r.Start, outer.Start), End: min(r.End, outer.End)}
	return c, c.Start <= c.End
}

// Saliency classifies how important a relationship is.
type Saliency string

const (
	SaliencyHigh Saliency = "high"
	SaliencyLow  Saliency = "low"
)

// ListDisplay selects which representation of an answer object is shown.
type ListDisplay string

const (
	ListDisplayOriginal ListDisplay = "original"
	ListDisplaySummary  ListDisplay = "summary"
	ListDisplaySlide    ListDisplay = "slide"
)

// NodeIndividual is one textual occurrence of an entity.
//
// ID is the id of the entity that owns the occurrence. It is retagged when the
// owning entity is merged into another one.
type NodeIndividual struct {
	ID             string      `json:"id"`
	AnswerObjectID string      `json:"answer_object_id"`
	DisplayLabel   string      `json:"display_label"`
	OriginText     string      `json:"origin_text"`
	OriginRange    OriginRange `json:"origin_range"`
}

// NodeEntity groups every occurrence of one entity id inside an annotated text.
type NodeEntity struct {
	ID           string           `json:"id"`
	DisplayLabel string           `json:"display_label"`
	Individuals  []NodeIndividual `json:"individuals"`
}

// EdgePair is one directed connection carried by a relationship annotation.
type EdgePair struct {
	Saliency Saliency `json:"saliency"`
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
}

// EdgeEntity is one relationship annotation. Pairs whose endpoints are not
// entities of the same text are kept and called dangling.
type EdgeEntity struct {
	EdgeLabel      string      `json:"edge_label"`
	EdgePairs      []EdgePair  `json:"edge_pairs"`
	OriginRange    OriginRange `json:"origin_range"`
	OriginText     string      `json:"origin_text"`
	AnswerObjectID string      `json:"answer_object_id"`
}

// AnnotatedText is a text buffer together with the entities and
// relationships parsed from it.
type AnnotatedText struct {
	Content      string       `json:"content"`
	NodeEntities []NodeEntity `json:"node_entities"`
	EdgeEntities []EdgeEntity `json:"edge_entities"`
}

// Slide is the markdown rendition of an answer object.
type Slide struct {
	Content string `json:"content"`
}

// AnswerObjectSynced is the UI state of one answer object that is persisted
// together with it.
type AnswerObjectSynced struct {
	ListDisplay             ListDisplay `json:"list_display"`
	SaliencyFilter          Saliency    `json:"saliency_filter"`
	CollapsedNodes          []string    `json:"collapsed_nodes"`
	SentencesBeingCorrected []string    `json:"sentences_being_corrected"`
}

// AnswerObject is one paragraph of an answer.
type AnswerObject struct {
	ID         string             `json:"id"`
	OriginText AnnotatedText      `json:"origin_text"`
	Summary    AnnotatedText      `json:"summary"`
	Slide      Slide              `json:"slide"`
	Synced     AnswerObjectSynced `json:"synced"`
	Complete   bool               `json:"complete"`
}

// ModelStatus tracks the progress of model requests for one question.
type ModelStatus struct {
	ModelAnswering         bool        `json:"model_answering"`
	ModelParsing           bool        `json:"model_parsing"`
	ModelAnsweringComplete bool        `json:"model_answering_complete"`
	ModelParsingComplete   bool        `json:"model_parsing_complete"`
	ModelError             bool        `json:"model_error"`
	ModelInitialPrompts    []ai.Prompt `json:"model_initial_prompts"`
}

// Busy reports whether a model request is streaming or parsing.
func (s ModelStatus) Busy() bool {
	return s.ModelAnswering || s.ModelParsing
}

// QuestionAndAnswerSynced holds the highlight and visibility state of a question.
//
// AnswerObjectIDsHighlightedTemp is the set of answer objects currently being
// processed by the model. HighlightedCoReferenceOriginRanges are offsets into
// the text named by HighlightedCoReferenceObjectID and
// HighlightedCoReferenceTarget.
type QuestionAndAnswerSynced struct {
	AnswerObjectIDsHighlighted         []string      `json:"answer_object_ids_highlighted"`
	AnswerObjectIDsHighlightedTemp     []string      `json:"answer_object_ids_highlighted_temp"`
	AnswerObjectIDsHidden              []string      `json:"answer_object_ids_hidden"`
	SaliencyFilter                     Saliency      `json:"saliency_filter"`
	HighlightedCoReferenceOriginRanges []OriginRange `json:"highlighted_co_reference_origin_ranges"`
	HighlightedCoReferenceObjectID     string        `json:"highlighted_co_reference_object_id"`
	HighlightedCoReferenceTarget       string        `json:"highlighted_co_reference_target"`
	HighlightedNodeIDsProcessing       []string      `json:"highlighted_node_ids_processing"`
}

// QuestionAndAnswer is one question together with its answer and the answer
// objects derived from it.
type QuestionAndAnswer struct {
	ID            string                  `json:"id"`
	Question      string                  `json:"question"`
	Answer        string                  `json:"answer"`
	AnswerObjects []AnswerObject          `json:"answer_objects"`
	ModelStatus   ModelStatus             `json:"model_status"`
	Synced        QuestionAndAnswerSynced `json:"synced"`
}

// NewAnswerObject returns an empty answer object with default UI state.
func NewAnswerObject(id string) AnswerObject {
	return AnswerObject{
		ID: id,
		Synced: AnswerObjectSynced{
			ListDisplay:             ListDisplayOriginal,
			SaliencyFilter:          SaliencyLow,
			CollapsedNodes:          []string{},
			SentencesBeingCorrected: []string{},
		},
	}
}

// NewQuestionAndAnswer returns a question without any answer.
func NewQuestionAndAnswer(id, question string) QuestionAndAnswer {
	return QuestionAndAnswer{
		ID:            id,
		Question:      question,
		AnswerObjects: []AnswerObject{},
		Synced: QuestionAndAnswerSynced{
			AnswerObjectIDsHighlighted:         []string{},
			AnswerObjectIDsHighlightedTemp:     []string{},
			AnswerObjectIDsHidden:              []string{},
			SaliencyFilter:                     SaliencyLow,
			HighlightedCoReferenceOriginRanges: []OriginRange{},
			HighlightedNodeIDsProcessing:       []string{},
		},
	}
}

// Clone returns a deep copy of the entity.
func (n NodeEntity) Clone() NodeEntity {
	n.Individuals = slices.Clone(n.Individuals)
	return n
}

// Clone returns a deep copy of the edge.
func (e EdgeEntity) Clone() EdgeEntity {
	e.EdgePairs = slices.Clone(e.EdgePairs)
	return e
}

// Clone returns a deep copy of the annotated text.
func (t AnnotatedText) Clone() AnnotatedText {
	if t.NodeEntities != nil {
		nodes := make([]NodeEntity, len(t.NodeEntities))
		for i, n := range t.NodeEntities {
			nodes[i] = n.Clone()
		}
		t.NodeEntities = nodes
	}
	if t.EdgeEntities != nil {
		edges := make([]EdgeEntity, len(t.EdgeEntities))
		for i, e := range t.EdgeEntities {
			edges[i] = e.Clone()
		}
		t.EdgeEntities = edges
	}
	return t
}

// FindNode returns the entity with the given id.
func (t AnnotatedText) FindNode(id string) (NodeEntity, bool) {
	for _, n := range t.NodeEntities {
		if n.ID == id {
			return n, true
		}
	}
	return NodeEntity{}, false
}

// Clone returns a deep copy of the answer object.
func (o AnswerObject) Clone() AnswerObject {
	o.OriginText = o.OriginText.Clone()
	o.Summary = o.Summary.Clone()
	o.Synced.CollapsedNodes = slices.Clone(o.Synced.CollapsedNodes)
	o.Synced.SentencesBeingCorrected = slices.Clone(o.Synced.SentencesBeingCorrected)
	return o
}

// Clone returns a deep copy of the question and everything it owns.
func (q QuestionAndAnswer) Clone() QuestionAndAnswer {
	if q.AnswerObjects != nil {
		objects := make([]AnswerObject, len(q.AnswerObjects))
		for i, o := range q.AnswerObjects {
			objects[i] = o.Clone()
		}
		q.AnswerObjects = objects
	}
	q.ModelStatus.ModelInitialPrompts = slices.Clone(q.ModelStatus.ModelInitialPrompts)
	q.Synced.AnswerObjectIDsHighlighted = slices.Clone(q.Synced.AnswerObjectIDsHighlighted)
	q.Synced.AnswerObjectIDsHighlightedTemp = slices.Clone(q.Synced.AnswerObjectIDsHighlightedTemp)
	q.Synced.AnswerObjectIDsHidden = slices.Clone(q.Synced.AnswerObjectIDsHidden)
	q.Synced.HighlightedCoReferenceOriginRanges = slices.Clone(q.Synced.HighlightedCoReferenceOriginRanges)
	q.Synced.HighlightedNodeIDsProcessing = slices.Clone(q.Synced.HighlightedNodeIDsProcessing)
	return q
}

// Object returns the answer object with the given id.
func (q QuestionAndAnswer) Object(id string) (AnswerObject, bool) {
	i := q.ObjectIndex(id)
	if i < 0 {
		return AnswerObject{}, false
	}
	return q.AnswerObjects[i], true
}

// ObjectIndex returns the position of the answer object with the given id or -1.
func (q QuestionAndAnswer) ObjectIndex(id string) int {
	return slices.IndexFunc(q.AnswerObjects, func(o AnswerObject) bool {
		return o.ID == id
	})
}

// UpsertObject replaces the answer object with the same id or appends it.
func (q *QuestionAndAnswer) UpsertObject(o AnswerObject) {
	if i := q.ObjectIndex(o.ID); i >= 0 {
		q.AnswerObjects[i] = o
		return
	}
	q.AnswerObjects = append(q.AnswerObjects, o)
}

// AddID returns ids with id appended unless it is already present.
func AddID(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// RemoveID returns ids without id.
func RemoveID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(s string) bool { return s == id })
}
