//go:build ignore

// Package main generates a synthetic document folder for benchmarking
// indexing and search.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
package main

import (
	"archive/zip"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of documents to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	docxShare = flag.Int("docx", 20, "Percentage of documents written as .docx")
)

var topics = map[string][]string{
	"finance": {"budget", "invoice", "quarterly", "forecast", "expenses", "revenue", "audit", "payroll"},
	"travel":  {"flight", "hotel", "itinerary", "passport", "luggage", "booking", "train", "visa"},
	"home":    {"garden", "recipe", "insurance", "mortgage", "repairs", "furniture", "utilities", "lease"},
	"work":    {"meeting", "roadmap", "deadline", "proposal", "contract", "onboarding", "review", "launch"},
	"health":  {"appointment", "prescription", "dentist", "vaccination", "allergy", "therapy", "results", "clinic"},
}

var filler = []string{
	"the", "team", "agreed", "to", "follow", "up", "next", "week", "with", "a",
	"summary", "of", "open", "items", "and", "notes", "from", "our", "discussion",
	"please", "review", "attached", "details", "before", "friday", "thanks",
}

func sentence(r *rand.Rand, keywords []string) string {
	n := 8 + r.Intn(10)
	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if r.Intn(4) == 0 {
			words = append(words, keywords[r.Intn(len(keywords))])
		} else {
			words = append(words, filler[r.Intn(len(filler))])
		}
	}
	s := strings.Join(words, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func document(r *rand.Rand, keywords []string) []string {
	paragraphs := make([]string, 2+r.Intn(6))
	for i := range paragraphs {
		sentences := make([]string, 3+r.Intn(5))
		for j := range sentences {
			sentences[j] = sentence(r, keywords)
		}
		paragraphs[i] = strings.Join(sentences, " ")
	}
	return paragraphs
}

func writeTXT(path string, paragraphs []string) error {
	return os.WriteFile(path, []byte(strings.Join(paragraphs, "\n\n")+"\n"), 0644)
}

func writeDOCX(path string, paragraphs []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&b, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}
	b.WriteString(`</w:body></w:document>`)

	if _, err := w.Write([]byte(b.String())); err != nil {
		return err
	}
	return zw.Close()
}

func main() {
	flag.Parse()
	r := rand.New(rand.NewSource(*seed))

	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	// Map order is random; sort for a reproducible corpus.
	sort.Strings(names)

	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(*outputDir, name), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating directory %s: %v\n", name, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d documents in %s...\n", *numFiles, *outputDir)

	generated := 0
	for i := 0; i < *numFiles; i++ {
		topic := names[i%len(names)]
		keywords := topics[topic]
		title := fmt.Sprintf("%s_%s_%04d", keywords[r.Intn(len(keywords))], keywords[r.Intn(len(keywords))], i)
		paragraphs := document(r, keywords)

		var err error
		if r.Intn(100) < *docxShare {
			err = writeDOCX(filepath.Join(*outputDir, topic, title+".docx"), paragraphs)
		} else {
			err = writeTXT(filepath.Join(*outputDir, topic, title+".txt"), paragraphs)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating document %d: %v\n", i, err)
			continue
		}
		generated++
	}

	fmt.Printf("Generated %d documents successfully.\n", generated)
}
