package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-pan-validator/document"
	"go-pan-validator/models"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Ports toward the external collaborators. Production implementations are
// constructed at the server layer and injected; tests substitute doubles.

type PageRenderer interface {
	// PageCount reports the number of pages in the document.
	PageCount(pdf []byte) (int, error)

	// PageText extracts the embedded text of a zero-based page.
	PageText(pdf []byte, page int) (string, error)

	// RenderJPEG rasterizes the zero-based page range [first, last] to JPEG
	// images at the given DPI. Pages beyond the end of the document are
	// skipped, so the result may hold fewer images than requested.
	RenderJPEG(pdf []byte, first, last, dpi int) ([][]byte, error)
}

type TextExtractor interface {
	// ExtractText runs OCR on a JPEG image and returns line-joined text.
	ExtractText(ctx context.Context, image []byte) (string, error)
}

type FaceComparer interface {
	// CompareFaces returns a similarity score in [0,1] for the faces found
	// on the two JPEG images.
	CompareFaces(ctx context.Context, source, target []byte) (float64, error)
}

// Metric keys. Each is written exactly once per request.
const (
	MetricFormExtraction = "page1_ocr_ms"
	MetricCardExtraction = "page2_ocr_ms"
	MetricFaceMatch      = "face_match_ms"
	MetricParallel       = "parallel_processing_ms"
	MetricTotal          = "total_processing_ms"
)

// Zero-based page indices within the fixed 3-page submission.
const (
	formPageIndex   = 0
	cardPageIndex   = 1
	selfiePageIndex = 2
)

type Config struct {
	Policy         Policy
	WorkerPoolSize int64 // workers shared by all blocking stage I/O
	OCRRenderDPI   int   // DPI for the PAN card image sent to OCR
	FaceRenderDPI  int   // DPI for the two face images
}

// Orchestrator fans out the three independent validation stages of a
// submission, times each one, and reduces their outcomes into a single
// ValidationReport. A stage failure never propagates: each stage degrades to
// its default value (empty fields, undetermined similarity) and the report
// is always complete.
type Orchestrator struct {
	renderer PageRenderer
	ocr      TextExtractor
	faces    FaceComparer
	policy   Policy
	ocrDPI   int
	faceDPI  int

	// pool bounds all blocking work (rasterization, provider round trips)
	// across requests; excess stages queue for a worker.
	pool *semaphore.Weighted
}

func NewOrchestrator(renderer PageRenderer, ocr TextExtractor, faces FaceComparer, config Config) *Orchestrator {
	return &Orchestrator{
		renderer: renderer,
		ocr:      ocr,
		faces:    faces,
		policy:   config.Policy,
		ocrDPI:   config.OCRRenderDPI,
		faceDPI:  config.FaceRenderDPI,
		pool:     semaphore.NewWeighted(config.WorkerPoolSize),
	}
}

// Validate runs the three stages concurrently on a page-count-validated PDF
// and assembles the full report. The returned report is complete even when
// every stage degraded; an error is only possible for faults outside the
// stage isolation boundaries.
func (o *Orchestrator) Validate(ctx context.Context, pdf []byte) (models.ValidationReport, error) {
	start := time.Now()

	var (
		formFields document.Fields
		cardFields document.Fields
		similarity *float64

		formMs, cardMs, faceMs int64
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go o.runStage(ctx, &wg, "form_extraction", &formMs, func(ctx context.Context) {
		formFields = o.extractFormFields(ctx, pdf)
	})
	go o.runStage(ctx, &wg, "card_extraction", &cardMs, func(ctx context.Context) {
		cardFields = o.extractCardFields(ctx, pdf)
	})
	go o.runStage(ctx, &wg, "face_comparison", &faceMs, func(ctx context.Context) {
		similarity = o.compareFaces(ctx, pdf)
	})
	wg.Wait()
	parallelMs := time.Since(start).Milliseconds()

	// A stage that panicked leaves its field set nil; that degrades to
	// "nothing extracted" like any other stage failure.
	if formFields == nil {
		formFields = document.Fields{}
	}
	if cardFields == nil {
		cardFields = document.Fields{}
	}

	comparisons, fieldPass, validationErrors := o.policy.CompareFields(formFields, cardFields)
	faceResult, faceErr := o.policy.AssessFaceMatch(similarity)
	if faceErr != nil {
		validationErrors = append(validationErrors, *faceErr)
	}

	report := models.ValidationReport{
		ApplicationId: NewApplicationId(),
		FieldMatches:  comparisons,
		FieldPass:     fieldPass,
		FaceMatch:     faceResult,
		OverallPass:   fieldPass && faceResult.Pass,
		Errors:        validationErrors,
		ProcessedAt:   time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Metrics: models.Metrics{
			MetricFormExtraction: formMs,
			MetricCardExtraction: cardMs,
			MetricFaceMatch:      faceMs,
			MetricParallel:       parallelMs,
			MetricTotal:          time.Since(start).Milliseconds(),
		},
	}

	slog.Info("document validation completed",
		"application_id", report.ApplicationId,
		"field_pass", report.FieldPass,
		"face_pass", report.FaceMatch.Pass,
		"overall_pass", report.OverallPass,
		"total_ms", report.Metrics[MetricTotal])

	return report, nil
}

// NewApplicationId returns an opaque report token like "APP-1A2B3C4D".
func NewApplicationId() string {
	id := uuid.New()
	return fmt.Sprintf("APP-%X", id[:4])
}

// runStage executes one stage, records its elapsed time regardless of
// outcome, and keeps panics from crossing the join boundary.
func (o *Orchestrator) runStage(ctx context.Context, wg *sync.WaitGroup, name string, elapsedMs *int64, fn func(context.Context)) {
	defer wg.Done()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("validation stage panicked", "stage", name, "panic", r)
		}
		*elapsedMs = time.Since(start).Milliseconds()
	}()
	fn(ctx)
}

// withWorker runs fn while holding one slot of the shared worker pool.
func (o *Orchestrator) withWorker(ctx context.Context, fn func() error) error {
	if err := o.pool.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire worker: %w", err)
	}
	defer o.pool.Release(1)
	return fn()
}

// extractFormFields reads the embedded text of page 1 and applies the form
// grammar. Any failure degrades to an empty field set.
func (o *Orchestrator) extractFormFields(ctx context.Context, pdf []byte) document.Fields {
	var text string
	err := o.withWorker(ctx, func() error {
		pageText, err := o.renderer.PageText(pdf, formPageIndex)
		text = pageText
		return err
	})
	if err != nil {
		slog.Warn("form page text extraction failed", "error", err)
		return document.Fields{}
	}
	return document.ParseFormPage(text)
}

// extractCardFields rasterizes page 2, submits it to the OCR provider and
// applies the PAN card grammar. Any failure degrades to an empty field set.
func (o *Orchestrator) extractCardFields(ctx context.Context, pdf []byte) document.Fields {
	var image []byte
	err := o.withWorker(ctx, func() error {
		images, err := o.renderer.RenderJPEG(pdf, cardPageIndex, cardPageIndex, o.ocrDPI)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return errors.New("no image rendered for the card page")
		}
		image = images[0]
		return nil
	})
	if err != nil {
		slog.Warn("card page rasterization failed", "error", err)
		return document.Fields{}
	}

	var text string
	err = o.withWorker(ctx, func() error {
		ocrText, err := o.ocr.ExtractText(ctx, image)
		text = ocrText
		return err
	})
	if err != nil {
		slog.Warn("card page OCR failed", "error", err)
		return document.Fields{}
	}
	return document.ParsePanCard(text)
}

// compareFaces rasterizes pages 2 and 3 and submits both images to the face
// comparison provider. Fewer than two rendered images, or any provider
// failure, degrades to an undetermined similarity (nil).
func (o *Orchestrator) compareFaces(ctx context.Context, pdf []byte) *float64 {
	var images [][]byte
	err := o.withWorker(ctx, func() error {
		rendered, err := o.renderer.RenderJPEG(pdf, cardPageIndex, selfiePageIndex, o.faceDPI)
		images = rendered
		return err
	})
	if err != nil {
		slog.Warn("face page rasterization failed", "error", err)
		return nil
	}
	if len(images) < 2 {
		slog.Warn("not enough face images rendered", "count", len(images))
		return nil
	}

	var similarity float64
	err = o.withWorker(ctx, func() error {
		score, err := o.faces.CompareFaces(ctx, images[0], images[1])
		similarity = score
		return err
	})
	if err != nil {
		slog.Warn("face comparison failed", "error", err)
		return nil
	}
	return &similarity
}
