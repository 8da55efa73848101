// pdfredact is a command-line tool for finding and removing personal
// information in PDF documents.
//
// It can scan a PDF and report detected PII with page coordinates, apply a
// set of redaction and replacement instructions, burn review annotations into
// the page content, or stamp a watermark onto every page.
//
// Usage:
//
//	pdfredact -input document.pdf [options]
//
// Required flags:
//
//	-input string    Path to the input PDF
//
// Modes (one required):
//
//	-detect          Detect PII and write the detections as JSON
//	-ops string      Path to a YAML file with redaction items and annotations
//	-watermark string  Stamp this text onto every page
//
// Output:
//
//	-output string   Output path (PDF for -ops/-watermark, JSON for -detect;
//	                 -detect defaults to stdout)
//
// Detection backends:
//
// Regex detection always runs. Detection of names, companies, schools and
// addresses needs an entity extraction backend:
//
//	-docai-config string  YAML file with Google Document AI settings
//	                      (project_id, location, processor_id; the
//	                      DOCAI_CONFIG environment variable is the
//	                      fallback for this flag)
//
// Without a Document AI config, an OpenAI-backed extractor is used when the
// OPENAI_API_KEY environment variable is set (model from OPENAI_MODEL,
// default gpt-4o-mini). With neither, only regex detections are reported.
//
// A .env file in the working directory is loaded if present. LOG_LEVEL
// controls log verbosity.
//
// Ops file format:
//
//	watermark: "Processed by cookedcareer.com"
//	items:
//	  - page: 0
//	    bbox: {x: 72, y: 96, width: 180, height: 12}
//	    replacement_text: "REDACTED"
//	    style: {font_name: Helvetica, font_size: 11}
//	annotations:
//	  - page_number: 0
//	    type: highlight
//	    position: {x: 72, y: 200, width: 120, height: 14}
//	    content: {comment: "verify this employer"}
//
// Examples:
//
//	pdfredact -input resume.pdf -detect -output detections.json
//	pdfredact -input resume.pdf -ops redactions.yml -output resume_clean.pdf
//	pdfredact -input resume.pdf -watermark "Reviewed by cookedcareer.com" -output resume_marked.pdf
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cookedcareer/pdfredact/pkg/annotate"
	"github.com/cookedcareer/pdfredact/pkg/piidetect"
	"github.com/cookedcareer/pdfredact/pkg/redact"
)

// opsFile is the YAML document accepted by -ops.
type opsFile struct {
	Watermark   string                `yaml:"watermark"`
	Items       []redact.Item         `yaml:"items"`
	Annotations []annotate.Annotation `yaml:"annotations"`
}

func main() {
	inputPath := flag.String("input", "", "Path to the input PDF (required)")
	outputPath := flag.String("output", "", "Output path")
	detect := flag.Bool("detect", false, "Detect PII and write detections as JSON")
	opsPath := flag.String("ops", "", "Path to a YAML file with redaction items and annotations")
	watermark := flag.String("watermark", "", "Stamp this text onto every page")
	docaiConfigPath := flag.String("docai-config", "", "Path to a Google Document AI config YAML file")
	flag.Parse()

	_ = godotenv.Load()
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -input flag is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	modes := 0
	for _, set := range []bool{*detect, *opsPath != "", *watermark != ""} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -detect, -ops or -watermark must be given")
		os.Exit(1)
	}

	pdfData, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input PDF: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *detect:
		err = runDetect(pdfData, *docaiConfigPath, *outputPath)
	case *opsPath != "":
		err = runOps(pdfData, *opsPath, *outputPath)
	default:
		err = runWatermark(pdfData, *watermark, *outputPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newExtractor picks the entity extraction backend: Document AI when a config
// file is given, OpenAI when an API key is present, otherwise none.
func newExtractor(docaiConfigPath string) (piidetect.EntityExtractor, error) {
	if docaiConfigPath == "" {
		docaiConfigPath = os.Getenv("DOCAI_CONFIG")
	}
	if docaiConfigPath != "" {
		data, err := os.ReadFile(docaiConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read Document AI config: %w", err)
		}
		var cfg piidetect.DocAIConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse Document AI config: %w", err)
		}
		return piidetect.NewDocAIExtractor(cfg)
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = "gpt-4o-mini"
		}
		return piidetect.NewOpenAIExtractor(apiKey, model)
	}

	return nil, nil
}

func runDetect(pdfData []byte, docaiConfigPath, outputPath string) error {
	extractor, err := newExtractor(docaiConfigPath)
	if err != nil {
		return err
	}

	detector := piidetect.NewDetector(extractor)
	result, err := detector.Detect(context.Background(), pdfData)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	if outputPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outputPath, out, 0644)
}

func runOps(pdfData []byte, opsPath, outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("-output is required with -ops")
	}

	data, err := os.ReadFile(opsPath)
	if err != nil {
		return fmt.Errorf("failed to read ops file: %w", err)
	}
	var ops opsFile
	if err := yaml.Unmarshal(data, &ops); err != nil {
		return fmt.Errorf("failed to parse ops file: %w", err)
	}

	out := pdfData
	if len(ops.Items) > 0 {
		out, err = redact.Apply(out, ops.Items)
		if err != nil {
			return err
		}
	}
	if len(ops.Annotations) > 0 || ops.Watermark != "" {
		out, err = annotate.Burn(out, ops.Annotations, ops.Watermark)
		if err != nil {
			return err
		}
	}

	return os.WriteFile(outputPath, out, 0644)
}

func runWatermark(pdfData []byte, text, outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("-output is required with -watermark")
	}
	out, err := annotate.AddWatermark(pdfData, text)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, out, 0644)
}
