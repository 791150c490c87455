package analysis

import (
	"fmt"
	"strings"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

const analysisPromptTemplate = `Analyze the following research paper:

Title: %s
Authors: %s
Abstract: %s

Please provide a structured analysis with the following sections:
1. Summary (2-3 sentences)
2. Key Findings (bullet points)
3. Methodology Overview
4. Potential Applications
5. Future Research Directions

Format the response in a clear, structured way.`

func buildAnalysisPrompt(paper domain.Paper) string {
	return fmt.Sprintf(analysisPromptTemplate, paper.Title, strings.Join(paper.Authors, ", "), paper.Abstract)
}
