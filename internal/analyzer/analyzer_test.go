package analyzer_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"wakeup-checker/internal/analyzer"
	"wakeup-checker/internal/decoder"
	"wakeup-checker/internal/features"
	"wakeup-checker/internal/logging"
	"wakeup-checker/internal/scoring"
	"wakeup-checker/internal/types"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const testRate = 22050

func writeWAV(t *testing.T, path string, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, testRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: testRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
}

// writeSweep 写入一段从 200 Hz 扫到 2000 Hz 的正弦扫频
func writeSweep(t *testing.T, dir, name string, seconds float64) string {
	t.Helper()
	n := int(seconds * testRate)
	data := make([]int, n)
	phase := 0.0
	for i := range data {
		freq := 200 + 1800*float64(i)/float64(n)
		phase += 2 * math.Pi * freq / testRate
		data[i] = int(0.3 * 32767 * math.Sin(phase))
	}
	path := filepath.Join(dir, name)
	writeWAV(t, path, data)
	return path
}

func newAnalyzer(cfg *types.AnalyzerConfig, opts ...analyzer.Option) *analyzer.Analyzer {
	if cfg == nil {
		cfg = &types.AnalyzerConfig{SampleRate: testRate}
	}
	return analyzer.NewAnalyzer(cfg, opts...)
}

func TestAnalyzeMatchesIndependentExtraction(t *testing.T) {
	path := writeSweep(t, t.TempDir(), "sweep.wav", 3)
	a := newAnalyzer(&types.AnalyzerConfig{SampleRate: testRate, MaxDuration: 2 * time.Second})

	report, err := a.Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	file, err := decoder.NewDecoderRegistry().DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	defer file.Close()
	window, err := decoder.ReadWindow(file, 2*time.Second, testRate)
	if err != nil {
		t.Fatalf("ReadWindow: %v", err)
	}
	if len(window.Samples) != 2*testRate {
		t.Fatalf("expected truncated window of %d samples, got %d", 2*testRate, len(window.Samples))
	}
	fs, err := a.Extractor().Extract(window)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	score, issues := scoring.Calculate(fs.BPM, fs.SpectralCentroid, fs.RMSEnergy, fs.ZCR, fs.OnsetStrength)
	want := analyzer.BuildReport(path, *fs, score, issues)

	if !reflect.DeepEqual(report, want) {
		t.Fatalf("orchestrated report differs:\n got %+v\nwant %+v", report, want)
	}
	if report.Filename != "sweep.wav" {
		t.Fatalf("unexpected filename %q", report.Filename)
	}
	if report.SuitabilityScore < 0 || report.SuitabilityScore > 10 || len(report.SuitabilityIssues) == 0 {
		t.Fatalf("invalid score/issues: %v %v", report.SuitabilityScore, report.SuitabilityIssues)
	}
	if report.RMSEnergy < 0.19 || report.RMSEnergy > 0.22 {
		t.Fatalf("unexpected rms for 0.3 amplitude sweep: %v", report.RMSEnergy)
	}
}

func TestAnalyzeDecodeFailures(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.wav")
	if err := os.WriteFile(corrupt, []byte("RIFF garbage"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	unsupported := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unsupported, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write text file: %v", err)
	}

	a := newAnalyzer(nil)
	for _, path := range []string{corrupt, unsupported, filepath.Join(dir, "missing.flac")} {
		report, err := a.Analyze(path)
		if report != nil {
			t.Fatalf("%s: expected no report, got %+v", path, report)
		}
		var failure *analyzer.Failure
		if !errors.As(err, &failure) {
			t.Fatalf("%s: expected *Failure, got %T %v", path, err, err)
		}
		if failure.Kind != analyzer.DecodeError {
			t.Fatalf("%s: expected DecodeError, got %s", path, failure.Kind)
		}
	}
}

// stubDecoder 返回固定采样的解码器，用于构造退化输入
type stubDecoder struct {
	samples []float64
	panics  bool
}

func (d *stubDecoder) SupportedFormats() []string { return []string{"stub"} }

func (d *stubDecoder) Decode(string) (types.AudioFile, error) {
	if d.panics {
		panic("corrupt frame header")
	}
	return &stubFile{samples: d.samples}, nil
}

type stubFile struct {
	samples []float64
}

func (f *stubFile) GetFormat() string { return "STUB" }
func (f *stubFile) GetSampleRate() int { return testRate }
func (f *stubFile) GetBitDepth() int { return 16 }
func (f *stubFile) GetChannels() int { return 1 }
func (f *stubFile) GetDuration() time.Duration { return 0 }
func (f *stubFile) ReadSamples(int) ([]float64, error) { return f.samples, nil }
func (f *stubFile) GetMetadata() types.AudioMetadata { return types.AudioMetadata{} }
func (f *stubFile) Close() error { return nil }

func TestAnalyzeEmptyStreamIsExtractionError(t *testing.T) {
	a := newAnalyzer(nil)
	a.Registry().Register(&stubDecoder{})

	report, err := a.Analyze("/uploads/empty.stub")
	if report != nil {
		t.Fatalf("expected no report, got %+v", report)
	}
	var failure *analyzer.Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure, got %T %v", err, err)
	}
	if failure.Kind != analyzer.ExtractionError {
		t.Fatalf("expected ExtractionError, got %s (%v)", failure.Kind, failure.Err)
	}
	if !errors.Is(err, features.ErrEmptyWindow) {
		t.Fatalf("expected wrapped ErrEmptyWindow, got %v", err)
	}
	if !strings.Contains(failure.Error(), "empty.stub") {
		t.Fatalf("failure message should name the file: %q", failure.Error())
	}
}

func TestAnalyzeRecoversDecoderPanics(t *testing.T) {
	a := newAnalyzer(nil)
	a.Registry().Register(&stubDecoder{panics: true})

	report, err := a.Analyze("boom.stub")
	if report != nil {
		t.Fatalf("expected no report, got %+v", report)
	}
	var failure *analyzer.Failure
	if !errors.As(err, &failure) || failure.Kind != analyzer.DecodeError {
		t.Fatalf("expected DecodeError failure, got %v", err)
	}
}

func TestAnalyzeEmitsCheckpointEvents(t *testing.T) {
	path := writeSweep(t, t.TempDir(), "events.wav", 1)

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	if _, err := newAnalyzer(nil, analyzer.WithLogger(logger)).Analyze(path); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	counts := map[string]int{}
	featuresSeen := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var evt map[string]any
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		msg, _ := evt["msg"].(string)
		counts[msg]++
		if msg == "feature computed" {
			name, _ := evt["feature"].(string)
			featuresSeen[name] = true
		}
	}

	for _, msg := range []string{"decode start", "decode complete", "score computed"} {
		if counts[msg] != 1 {
			t.Fatalf("expected one %q event, got %d (%v)", msg, counts[msg], counts)
		}
	}
	for _, name := range []string{"bpm", "spectral_centroid", "rms_energy", "zcr", "onset_strength"} {
		if !featuresSeen[name] {
			t.Fatalf("missing feature event for %s", name)
		}
	}
}

func TestAnalyzeFilesCollectsResults(t *testing.T) {
	dir := t.TempDir()
	good := writeSweep(t, dir, "a_sweep.wav", 1)
	broken := filepath.Join(dir, "b_broken.flac")
	if err := os.WriteFile(broken, []byte("fLaC but not really"), 0o644); err != nil {
		t.Fatalf("write broken file: %v", err)
	}

	var out bytes.Buffer
	a := newAnalyzer(&types.AnalyzerConfig{
		SampleRate:    testRate,
		Concurrency:   2,
		JSONOutput:    true,
		SuitableScore: 0,
	}, analyzer.WithOutput(&out))

	results, err := a.AnalyzeFiles([]string{broken, good})
	if err != nil {
		t.Fatalf("AnalyzeFiles: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].FilePath != good || results[1].FilePath != broken {
		t.Fatalf("results not sorted by path: %s, %s", results[0].FilePath, results[1].FilePath)
	}
	if results[0].Status != analyzer.StatusGood || results[0].Report == nil || results[0].Format != "WAV" {
		t.Fatalf("unexpected result for sweep: %+v", results[0])
	}
	if results[1].Status != analyzer.StatusError || results[1].Report != nil || results[1].Error == "" {
		t.Fatalf("unexpected result for broken file: %+v", results[1])
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one JSON line per file, got %d: %q", len(lines), out.String())
	}
	for _, line := range lines {
		var decoded types.AnalysisResult
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("decode JSON line %q: %v", line, err)
		}
	}
}

func TestAnalyzeFilesQuietListsPoorTracks(t *testing.T) {
	path := writeSweep(t, t.TempDir(), "sweep.wav", 1)

	var out bytes.Buffer
	a := newAnalyzer(&types.AnalyzerConfig{
		SampleRate:    testRate,
		Quiet:         true,
		SuitableScore: 10.1,
	}, analyzer.WithOutput(&out))

	results, err := a.AnalyzeFiles([]string{path})
	if err != nil {
		t.Fatalf("AnalyzeFiles: %v", err)
	}
	if results[0].Status != analyzer.StatusPoor {
		t.Fatalf("expected POOR status, got %s", results[0].Status)
	}
	if strings.TrimSpace(out.String()) != path {
		t.Fatalf("quiet mode should print only the path, got %q", out.String())
	}
}

func TestAnalyzeFilesQuietTakesPrecedenceOverTable(t *testing.T) {
	path := writeSweep(t, t.TempDir(), "quiet-table.wav", 1)

	var out bytes.Buffer
	a := newAnalyzer(&types.AnalyzerConfig{
		SampleRate:    testRate,
		Quiet:         true,
		TableOutput:   true,
		SuitableScore: 10.1,
	}, analyzer.WithOutput(&out))

	if _, err := a.AnalyzeFiles([]string{path}); err != nil {
		t.Fatalf("AnalyzeFiles: %v", err)
	}
	if strings.TrimSpace(out.String()) != path {
		t.Fatalf("quiet mode should still list the poor track, got %q", out.String())
	}
}

func TestAnalyzeUsesInjectedScorer(t *testing.T) {
	path := writeSweep(t, t.TempDir(), "scored.wav", 1)

	rules := []scoring.Rule{{
		Name: "always", Code: types.VolumeTooHigh, Penalty: 4,
		Applies: func(types.FeatureSet) bool { return true },
	}}
	a := newAnalyzer(&types.AnalyzerConfig{SampleRate: testRate}, analyzer.WithScorer(scoring.NewScorer(rules)))

	report, err := a.Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.SuitabilityScore != 6 {
		t.Fatalf("expected score 6 from the injected table, got %v", report.SuitabilityScore)
	}
	if len(report.SuitabilityIssues) != 1 || report.SuitabilityIssues[0] != types.VolumeTooHigh {
		t.Fatalf("unexpected issues %v", report.SuitabilityIssues)
	}
}

func TestAnalyzeFilesTableOutput(t *testing.T) {
	path := writeSweep(t, t.TempDir(), "table.wav", 1)

	var out bytes.Buffer
	a := newAnalyzer(&types.AnalyzerConfig{
		SampleRate:  testRate,
		TableOutput: true,
	}, analyzer.WithOutput(&out))

	if _, err := a.AnalyzeFiles([]string{path}); err != nil {
		t.Fatalf("AnalyzeFiles: %v", err)
	}
	rendered := out.String()
	if !strings.Contains(rendered, "table.wav") || !strings.Contains(rendered, "BPM") {
		t.Fatalf("table output missing expected content: %q", rendered)
	}
	if !strings.Contains(rendered, "分析统计") {
		t.Fatalf("summary missing: %q", rendered)
	}
}

func TestBuildReportRoundsToDisplayPrecision(t *testing.T) {
	fs := types.FeatureSet{
		BPM:              117.45678,
		SpectralCentroid: 2345.6789,
		RMSEnergy:        0.123456,
		ZCR:              0.045678,
		OnsetStrength:    0.987654,
	}
	report := analyzer.BuildReport("/tmp/upload/song.mp3", fs, 9.0, []types.IssueCode{types.SoundTooBright})
	want := &types.SuitabilityReport{
		Filename:          "song.mp3",
		BPM:               117.46,
		SpectralCentroid:  2345.68,
		RMSEnergy:         0.1235,
		ZCR:               0.0457,
		OnsetStrength:     0.9877,
		SuitabilityScore:  9.0,
		SuitabilityIssues: []types.IssueCode{types.SoundTooBright},
	}
	if !reflect.DeepEqual(report, want) {
		t.Fatalf("got %+v want %+v", report, want)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"filename"`, `"bpm"`, `"spectral_centroid"`, `"rms_energy"`, `"zcr"`, `"onset_strength"`, `"suitability_score"`, `"suitability_issues"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Fatalf("JSON missing %s: %s", key, data)
		}
	}
}
