package multimodel

import (
	"strings"

	"completiond/internal/vectorindex"
)

const qaTemplate = "Context information is below. \n" +
	"---------------------\n" +
	"{context}" +
	"\n---------------------\n" +
	"Given the context information and not prior knowledge, answer the question: {question}\n"

func questionPrompt(matches []vectorindex.Match, question string) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Text)
	}
	r := strings.NewReplacer("{context}", strings.Join(parts, "\n\n"), "{question}", question)
	return r.Replace(qaTemplate)
}
