package genai

import (
	"fmt"
	"strings"
)

const outlineSystemPrompt = `Write in JSON format:

{"Title of section goes here":"Description of section goes here","Title of section goes here":"Description of section goes here","Title of section goes here":"Description of section goes here"}`

const outlineShotExample = `
"Introduction": "Introduction to the AMA session, including the topic of Groq scaling architecture and the panelists",
"Panelist Introductions": "Brief introductions from Igor, Andrew, and Omar, covering their backgrounds and roles at Groq",
"Groq Scaling Architecture Overview": "High-level overview of Groq's scaling architecture, covering hardware, software, and cloud components",
"Hardware Perspective": "Igor's overview of Groq's hardware approach, using an analogy of city traffic management to explain the traditional compute approach and Groq's innovative approach",
"Traditional Compute": "Description of traditional compute approach, including asynchronous nature, queues, and poor utilization of infrastructure",
"Groq's Approach": "Description of Groq's approach, including pre-orchestrated movement of data, low latency, high energy efficiency, and high utilization of resources",
"Hardware Implementation": "Igor's explanation of the hardware implementation, including a comparison of GPU and LPU architectures"
`

const sectionSystemPrompt = `You are an expert writer. Generate a comprehensive note for the section provided based factually on the transcript provided. Do not repeat any content from previous sections. Avoid giving a premise before the section. Don't repeat section titles.`

const transcriptStructureSystemPrompt = `You are a transcript editor. Identify the sections in the following transcript, preserving the original text. Output a JSON object where each key is a section title from the provided list, and the value is the content of that section.`

// BuildOutlinePrompt creates the user prompt for notes structure generation.
func BuildOutlinePrompt(transcript string) string {
	var sb strings.Builder
	sb.WriteString("### Transcript:\n\n")
	sb.WriteString(transcript)
	sb.WriteString("\n\n### Example:\n\n")
	sb.WriteString(outlineShotExample)
	sb.WriteString("\n\n### Instructions:\n\nCreate a structure for comprehensive notes on the above transcribed audio. ")
	sb.WriteString("Section titles and content descriptions must be comprehensive. Quality over quantity. ")
	sb.WriteString("Don't include any additional information.")
	return sb.String()
}

// BuildSectionPrompt creates the user prompt for one section's content,
// grounded in the notes already written so content is not repeated.
func BuildSectionPrompt(transcript, existingNotes, section string) string {
	var sb strings.Builder
	sb.WriteString("### Transcript:\n\n")
	sb.WriteString(transcript)
	sb.WriteString("\n\n### Existing Notes:\n\n")
	sb.WriteString(existingNotes)
	sb.WriteString("\n\n### Instructions:\n\nGenerate comprehensive notes for this section only based on this section of the transcript: \n\n")
	sb.WriteString(section)
	sb.WriteString(".")
	return sb.String()
}

// BuildTranscriptStructurePrompt creates the user prompt for segmenting a
// transcript into the given sections with verbatim text.
func BuildTranscriptStructurePrompt(transcript string, sections []string) string {
	var sb strings.Builder
	sb.WriteString("### Transcript\n\n")
	sb.WriteString(transcript)
	sb.WriteString("\n\n### Sections\n\n")
	sb.WriteString(strings.Join(sections, ", "))
	sb.WriteString("\n\n### Instructions\n\nIdentify the sections in the transcript and insert a separator (---) between them. ")
	sb.WriteString("Preserve the original text and do not add any additional information. ")
	sb.WriteString("Output the structured transcript as a JSON object with the format:\n\n```json\n{\n")
	if len(sections) > 0 {
		fmt.Fprintf(&sb, "  %q: \"Content of section 1\",\n", sections[0])
	}
	if len(sections) > 1 {
		fmt.Fprintf(&sb, "  %q: \"Content of section 2\",\n", sections[1])
	}
	sb.WriteString("  ...\n}\n```")
	return sb.String()
}
