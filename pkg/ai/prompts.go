package ai

import (
	"fmt"
	"strings"
)

// CorrectionResponse is the structured output of a self-correction request.
type CorrectionResponse struct {
	Sentence string `json:"sentence" jsonschema:"description=The re-annotated sentence"`
}

const annotationFormat = `
# Annotation Format
- Annotate every entity inline as [<entity text> ($N<id>)], e.g. [Artificial Intelligence ($N1)].
- Annotate every relationship inline as [<relationship text> ($H, $N<source>, $N<target>)].
- $H marks a highly salient relationship, $L marks a less salient one.
- One relationship annotation may connect several pairs, separated by semicolons:
  [divided into ($H, $N1, $N2; $H, $N1, $N3)].
- The same entity mentioned again keeps its id, e.g. [AI ($N1)] after [Artificial Intelligence ($N1)].
- Relationships only connect entities that are annotated in the response.
- Every entity should be connected by at least one relationship.
- Never wrap annotations in markdown formatting such as **bold**.
`

const idMatchingRules = `
# Entity Ids
- An entity that was not mentioned in the previous response gets a new id that continues
  the numbering (if the previous response reached "$N102", start at "$N103").
- An entity that already appeared in the previous response keeps its id.
`

const InitialAskPrompt = `
# Task Context
You are a helpful assistant that answers questions with text that is annotated with entities and relationships, so that a node-link diagram can be built from the answer while it is being written.
` + annotationFormat + `
# Examples
Question: "What is HCI?"

Output:
[Human-Computer Interaction ($N1)] [is a ($H, $N1, $N2)] [multidisciplinary field ($N2)] that [focuses on ($H, $N1, $N3)] [the design of computer technology ($N3)], [centered around ($H, $N1, $N4)] [the interfaces ($N4)] [between ($H, $N4, $N5; $H, $N4, $N6)] [people (users) ($N5)] and [computers ($N6)].

# Immediate Task Description or Request
Answer the user's question in a few short paragraphs separated by single line breaks.

# Output Formatting
Return only the annotated answer text. Do not add headings, lists, or explanations of the annotations.
`

const nodeExpandPrompt = `
# Task Context
In the sentence "%s" you mentioned the entity "%s".

# Detailed Task Description & Rules
- Explain this entity in 1 to 2 sentences, using the previous response as context.
- The explanation is one concise paragraph and follows the same annotation format as the previous response.
- Annotate at least one relationship for each entity. Relationships only connect entities that appear in the response.
` + idMatchingRules + `
# Examples
For "[general AI ($N10)]" in "[AI systems ($N1)] can be [divided into ($H, $N1, $N9; $H, $N1, $N10)] [narrow AI ($N9)] and [general AI ($N10)].":
[General AI ($N10)] refers to a [type of ($L, $N10, $N1)] [artificial intelligence ($N1)] that [has the ability to ($L, $N10, $N14; $L, $N10, $N15)] [learn ($N14)] and [apply knowledge across many tasks ($N15)].
`

const nodeExamplesPrompt = `
# Task Context
In the sentence "%s" you mentioned the entity "%s".

# Detailed Task Description & Rules
- Give a few examples of this entity. Do not explain the examples further.
- Follow the same annotation format as the previous response.
` + idMatchingRules + `
# Examples
For "[Fruits ($N1)]" in "[Fruits ($N1)] can [help with ($H, $N1, $N2)] [health ($N2)].":
[Fruits ($N1)], for example, [include ($H, $N1, $N3; $H, $N1, $N4; $H, $N1, $N5)] [apples ($N3)], [oranges ($N4)], and [watermelons ($N5)].
`

const moreSentencesPrompt = `
# Task Context
You previously wrote the paragraph "%s".

# Detailed Task Description & Rules
- Continue the paragraph with one or two more sentences about the same topic and aspect, adding details.
- Follow the same annotation format as the previous response.
` + idMatchingRules + `
# Output Formatting
Return only the new sentences.
`

const moreParagraphPrompt = `
# Detailed Task Description & Rules
- Continue your previous response with exactly one new paragraph.
- The paragraph still answers the original question and adds details or a new aspect.
- Follow the same annotation format as the previous response.
` + idMatchingRules + `
# Output Formatting
Return only the new paragraph.
`

const selfCorrectionPrompt = `
# Task Context
One sentence of your previous response has annotation issues that need to be fixed.

# Background Data
%s
# Detailed Task Description & Rules
- Annotate the same sentence again so that all entities and relationships are extracted correctly.
- Relationships only connect existing entities, and every entity is connected by at least one relationship.
- You may rearrange the sentence to make annotating easier, but its meaning must not change and it must still read naturally.
` + idMatchingRules + `
# Output Formatting
Return a JSON object with this structure:
{
  "sentence": "<the re-annotated sentence>"
}
`

const SummarizeParagraphPrompt = `
# Task Context
You are a professional writer specialized in text summarization. You summarize a paragraph that is annotated with entities and relationships into one short sentence.
` + annotationFormat + `
# Detailed Task Description & Rules
- The summary reflects the main idea and the most important relationships of the paragraph.
- Only use entity ids that appear in the paragraph and keep the id of each entity.
- Only use highly salient relationships ($H).
- The paragraph may contain annotation mistakes (unconnected entities, relationships to unknown ids). Do not repeat them.

# Examples
Paragraph:
[Human-Computer Interaction ($N1)] [is a ($H, $N1, $N2)] [multidisciplinary field ($N2)] that [focuses on ($H, $N1, $N3)] [the design of computer technology ($N3)], [centered around ($H, $N1, $N4)] [the interfaces ($N4)] [between ($H, $N4, $N5; $H, $N4, $N6)] [people (users) ($N5)] and [computers ($N6)].

Summary:
[HCI ($N1)] [is a ($H, $N1, $N2)] [multidisciplinary field ($N2)] [centered around ($H, $N1, $N4)] [the interfaces ($N4)] [between ($H, $N4, $N5; $H, $N4, $N6)] [users ($N5)] and [computers ($N6)].

# Output Formatting
Return only the annotated summary sentence.
`

const SlideMarkdownPrompt = `
# Task Context
You are a professional presentation slide builder.

# Detailed Task Description & Rules
- Structure the text provided by the user into one presentation slide in markdown.
- Use numbered lists when a list is needed.

# Output Formatting
Return only the markdown of the slide.
`

// InitialAskPrompts builds the conversation for a new question.
func InitialAskPrompts(question string) []Prompt {
	return []Prompt{
		SystemPrompt(InitialAskPrompt),
		UserPrompt(question),
	}
}

// NodeExpandPrompts asks the model to explain one entity of a sentence.
// New entities are numbered from nextID on.
func NodeExpandPrompts(prev []Prompt, sentence, nodeLabel string, nextID int) []Prompt {
	return appendPrompt(prev, UserPrompt(fmt.Sprintf(nodeExpandPrompt, sentence, nodeLabel)+numberingHint(nextID)))
}

// NodeExamplesPrompts asks the model for examples of one entity of a sentence.
// New entities are numbered from nextID on.
func NodeExamplesPrompts(prev []Prompt, sentence, nodeLabel string, nextID int) []Prompt {
	return appendPrompt(prev, UserPrompt(fmt.Sprintf(nodeExamplesPrompt, sentence, nodeLabel)+numberingHint(nextID)))
}

// MoreSentencesPrompts asks the model to continue an existing paragraph.
// New entities are numbered from nextID on.
func MoreSentencesPrompts(prev []Prompt, paragraph string, nextID int) []Prompt {
	return appendPrompt(prev, UserPrompt(fmt.Sprintf(moreSentencesPrompt, paragraph)+numberingHint(nextID)))
}

func numberingHint(nextID int) string {
	if nextID <= 1 {
		return ""
	}
	return fmt.Sprintf("\nThe next new entity id is \"$N%d\".\n", nextID)
}

// MoreParagraphPrompts asks the model for one new paragraph.
func MoreParagraphPrompts(prev []Prompt) []Prompt {
	return appendPrompt(prev, UserPrompt(moreParagraphPrompt))
}

// SelfCorrectionPrompts asks the model to re-annotate a faulty sentence.
// orphanLabels are entities without relationships, danglingAnnotations are
// relationship annotations that reference unknown ids.
func SelfCorrectionPrompts(prev []Prompt, sentence string, orphanLabels, danglingAnnotations []string) []Prompt {
	var issues strings.Builder
	if len(orphanLabels) > 0 {
		fmt.Fprintf(&issues, "- The entities \"%s\" are mentioned but not connected by any relationship.\n",
			strings.Join(orphanLabels, ", "))
	}
	if len(danglingAnnotations) > 0 {
		fmt.Fprintf(&issues, "- The relationship annotations \"%s\" connect entity ids that are not mentioned in the response.\n",
			strings.Join(danglingAnnotations, ", "))
	}

	out := appendPrompt(prev, SystemPrompt(fmt.Sprintf(selfCorrectionPrompt, issues.String())))
	return append(out, UserPrompt("Please re-annotate this sentence: "+strings.TrimLeft(sentence, " \t\n")))
}

// SummarizeParagraphPrompts asks for an annotated one-sentence summary.
func SummarizeParagraphPrompts(paragraph string) []Prompt {
	return []Prompt{
		SystemPrompt(SummarizeParagraphPrompt),
		UserPrompt(paragraph),
	}
}

// SlideMarkdownPrompts asks for a markdown slide of plain text.
func SlideMarkdownPrompts(text string) []Prompt {
	return []Prompt{
		SystemPrompt(SlideMarkdownPrompt),
		UserPrompt(text),
	}
}

func appendPrompt(prev []Prompt, p Prompt) []Prompt {
	out := make([]Prompt, 0, len(prev)+2)
	out = append(out, prev...)
	return append(out, p)
}
