package dendrite

import (
	"fmt"
	"strings"
)

// Example is a few-shot pair: a description and the JSON object a correct
// interpretation would return for it.
type Example struct {
	Prompt string // natural-language description
	Params string // JSON object the model should have produced
}

// Prompt represents a structured interpreter prompt with consistent
// formatting. It enforces a canonical section ordering so responses stay
// comparable across attempts and providers.
type Prompt struct {
	Task        string    // Required: what the model should do
	Input       string    // Required: the user's free-text description
	Context     string    // Optional: additional context
	SpecBlock   string    // Required: per-parameter specification lines
	Examples    []Example // Optional: few-shot pairs
	Schema      string    // Required: exact JSON shape to return
	Constraints []string  // Rules the response must follow
	Corrections []string  // Feedback accumulated from failed attempts
}

// Render converts the structured prompt to a string for the LLM.
func (p *Prompt) Render() string {
	var sections []string

	if p.Task != "" {
		sections = append(sections, "Task: "+p.Task)
	}
	if p.Input != "" {
		sections = append(sections, "Input: "+p.Input)
	}
	if p.Context != "" {
		sections = append(sections, "Context: "+p.Context)
	}
	if p.SpecBlock != "" {
		sections = append(sections, "Parameters:\n"+p.SpecBlock)
	}
	if len(p.Examples) > 0 {
		ex := "Examples:\n"
		for i, e := range p.Examples {
			ex += fmt.Sprintf("  %d. %s -> %s\n", i+1, e.Prompt, e.Params)
		}
		sections = append(sections, strings.TrimSpace(ex))
	}
	if p.Schema != "" {
		sections = append(sections, "Return JSON:\n"+p.Schema)
	}
	if len(p.Constraints) > 0 {
		con := "Constraints:\n"
		for _, c := range p.Constraints {
			con += "- " + c + "\n"
		}
		sections = append(sections, strings.TrimSpace(con))
	}
	// Corrections come last so they are freshest in the model's context.
	if len(p.Corrections) > 0 {
		cor := "Your previous answer was rejected. Fix the following and answer again:\n"
		for _, c := range p.Corrections {
			cor += "- " + c + "\n"
		}
		sections = append(sections, strings.TrimSpace(cor))
	}

	return strings.Join(sections, "\n\n")
}

// Validate checks if the prompt has required fields.
func (p *Prompt) Validate() error {
	if p.Task == "" {
		return fmt.Errorf("prompt missing required Task field")
	}
	if p.Input == "" {
		return fmt.Errorf("prompt missing required Input field")
	}
	if p.SpecBlock == "" {
		return fmt.Errorf("prompt missing required SpecBlock field")
	}
	if p.Schema == "" {
		return fmt.Errorf("prompt missing required Schema field")
	}
	return nil
}
