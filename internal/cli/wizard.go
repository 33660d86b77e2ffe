package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"faq_scrap/internal/config"
	"faq_scrap/internal/extract"
	"faq_scrap/internal/faq"
	"faq_scrap/internal/relevance"
)

type formState struct {
	configPath string

	sitemap       string
	urlPattern    string
	prefilter     string
	patternName   string
	containerSel  string
	questionSel   string
	answerSel     string
	answerFormat  string
	mode          string
	timeoutSecStr string
	maxInFlight   string
	headless      bool
	waitFor       string
	validateItems bool
	pageGate      bool
	urlThreshold  string
	contentThresh string
	encoderKind   string
	endpoint      string
	model         string
	outputFormat  string
}

func newFormState(path string) *formState {
	s := &formState{configPath: path}
	s.fromConfig(config.Default())
	return s
}

func (s *formState) fromConfig(cfg config.Config) {
	s.sitemap = cfg.Sitemap
	s.urlPattern = cfg.FAQURLPattern
	s.prefilter = cfg.PrefilterStrategy()
	if len(cfg.ScrapePatterns) > 0 {
		p := cfg.ScrapePatterns[0]
		s.patternName = p.Name
		s.containerSel = p.Selector
		s.questionSel = p.Question
		s.answerSel = p.Answer
	}
	s.answerFormat = cfg.AnswerFormat
	s.mode = cfg.Fetch.Mode
	s.timeoutSecStr = strconv.Itoa(cfg.Fetch.TimeoutSeconds)
	s.maxInFlight = strconv.Itoa(cfg.Fetch.MaxInFlight)
	s.headless = cfg.Fetch.Headless
	s.waitFor = cfg.Fetch.WaitFor
	s.validateItems = cfg.Semantic.ValidateItems
	s.pageGate = cfg.Semantic.PageGate
	s.urlThreshold = strconv.FormatFloat(cfg.Semantic.URLThreshold, 'f', -1, 64)
	s.contentThresh = strconv.FormatFloat(cfg.Semantic.ContentThreshold, 'f', -1, 64)
	s.encoderKind = cfg.Semantic.Encoder.Kind
	s.endpoint = cfg.Semantic.Encoder.Endpoint
	s.model = cfg.Semantic.Encoder.Model
	s.outputFormat = cfg.Output.Format
}

// RunConfigWizard asks for the settings of one site and writes them to
// path. An existing file at path pre-fills the form.
func RunConfigWizard(path string) (string, error) {
	state := newFormState(path)
	if existing, err := config.Load(path); err == nil {
		state.fromConfig(existing)
	}

	if err := buildForm(state).WithTheme(huh.ThemeDracula()).Run(); err != nil {
		return "", err
	}

	cfg, err := buildConfig(state)
	if err != nil {
		return "", err
	}
	if err := config.Save(state.configPath, cfg); err != nil {
		return "", fmt.Errorf("save config: %w", err)
	}
	return state.configPath, nil
}

func buildForm(state *formState) *huh.Form {
	return huh.NewForm(
		buildSourceGroup(state),
		buildPatternGroup(state),
		buildFetchGroup(state),
		buildSemanticGroup(state),
		buildOutputGroup(state),
	)
}

func buildSourceGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Sitemap URL").Placeholder("https://example.com/sitemap.xml").
			Value(&state.sitemap).Validate(validateURL),
		huh.NewInput().Title("FAQ URL pattern").
			Description("Regular expression matched against page URLs (case-insensitive).").
			Placeholder("faq|help|support").Value(&state.urlPattern).Validate(validateRegexp),
		huh.NewSelect[string]().Title("Pre-filter").Value(&state.prefilter).Options(
			huh.NewOption("URL pattern", config.PrefilterPattern),
			huh.NewOption("Semantic", config.PrefilterSemantic),
			huh.NewOption("None", config.PrefilterNone),
		),
	).Title("Source")
}

func buildPatternGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Pattern name").Value(&state.patternName),
		huh.NewInput().Title("Container selector").Placeholder(".faq-item").
			Value(&state.containerSel).Validate(validateSelector),
		huh.NewInput().Title("Question selector").Placeholder(".question").
			Value(&state.questionSel).Validate(validateSelector),
		huh.NewInput().Title("Answer selector").Placeholder(".answer").
			Value(&state.answerSel).Validate(validateSelector),
		huh.NewSelect[string]().Title("Answer format").Value(&state.answerFormat).Options(
			huh.NewOption("Plain text", config.AnswerText),
			huh.NewOption("Markdown", config.AnswerMarkdown),
		),
	).Title("Scrape pattern")
}

func buildFetchGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewSelect[string]().Title("Mode").Description("Fetching strategy.").Value(&state.mode).Options(
			huh.NewOption("static", "static"),
			huh.NewOption("auto", "auto"),
			huh.NewOption("dynamic", "dynamic"),
		),
		huh.NewInput().Title("Timeout (seconds)").Value(&state.timeoutSecStr).
			Validate(validateIntString(1, 3600)),
		huh.NewInput().Title("Max in-flight requests").Value(&state.maxInFlight).
			Validate(validateIntString(1, 256)),
		huh.NewInput().Title("Wait-for selector").Description("Dynamic mode: wait for this element.").
			Value(&state.waitFor),
		huh.NewConfirm().Title("Headless").Description("Hide browser window (dynamic)?").Value(&state.headless),
	).Title("Network")
}

func buildSemanticGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewConfirm().Title("Validate items").Description("Classify each extracted pair?").Value(&state.validateItems),
		huh.NewConfirm().Title("Page gate").Description("Classify page text before extraction?").Value(&state.pageGate),
		huh.NewInput().Title("URL threshold").Value(&state.urlThreshold).Validate(validateFloatString(0, 1)),
		huh.NewInput().Title("Content threshold").Value(&state.contentThresh).Validate(validateFloatString(0, 1)),
		huh.NewSelect[string]().Title("Encoder").Value(&state.encoderKind).Options(
			huh.NewOption("Local hashing", config.EncoderHash),
			huh.NewOption("HTTP embeddings endpoint", config.EncoderHTTP),
		),
		huh.NewInput().Title("Encoder endpoint").Description("HTTP encoder only.").Value(&state.endpoint),
		huh.NewInput().Title("Encoder model").Description("HTTP encoder only.").Value(&state.model),
	).Title("Semantic")
}

func buildOutputGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewSelect[string]().Title("Output format").Value(&state.outputFormat).Options(
			huh.NewOption("JSON", "json"),
			huh.NewOption("YAML", "yaml"),
		),
		huh.NewInput().Title("Config path").Value(&state.configPath).Validate(validateConfigPath),
	).Title("Finish")
}

func buildConfig(state *formState) (config.Config, error) {
	cfg := config.Default()

	sitemap := strings.TrimSpace(state.sitemap)
	if err := validateURL(sitemap); err != nil {
		return config.Config{}, err
	}
	cfg.Sitemap = sitemap
	cfg.FAQURLPattern = strings.TrimSpace(state.urlPattern)
	cfg.Prefilter = state.prefilter
	if cfg.Prefilter == config.PrefilterPattern && cfg.FAQURLPattern == "" {
		return config.Config{}, errors.New("pattern pre-filter needs a FAQ URL pattern")
	}

	p := faq.Pattern{
		Name:     strings.TrimSpace(state.patternName),
		Selector: strings.TrimSpace(state.containerSel),
		Question: strings.TrimSpace(state.questionSel),
		Answer:   strings.TrimSpace(state.answerSel),
	}
	if err := extract.ValidatePattern(p); err != nil {
		return config.Config{}, err
	}
	cfg.ScrapePatterns = []faq.Pattern{p}
	cfg.AnswerFormat = state.answerFormat

	timeout, err := parsePositiveInt(state.timeoutSecStr, "timeout must be a positive integer")
	if err != nil {
		return config.Config{}, err
	}
	inFlight, err := parsePositiveInt(state.maxInFlight, "max in-flight must be a positive integer")
	if err != nil {
		return config.Config{}, err
	}
	cfg.Fetch.Mode = state.mode
	cfg.Fetch.TimeoutSeconds = timeout
	cfg.Fetch.MaxInFlight = inFlight
	cfg.Fetch.Headless = state.headless
	cfg.Fetch.WaitFor = strings.TrimSpace(state.waitFor)

	urlThreshold, err := parseUnitFloat(state.urlThreshold, "url threshold must be between 0 and 1")
	if err != nil {
		return config.Config{}, err
	}
	contentThreshold, err := parseUnitFloat(state.contentThresh, "content threshold must be between 0 and 1")
	if err != nil {
		return config.Config{}, err
	}
	cfg.Semantic.ValidateItems = state.validateItems
	cfg.Semantic.PageGate = state.pageGate
	cfg.Semantic.URLThreshold = urlThreshold
	cfg.Semantic.ContentThreshold = contentThreshold
	cfg.Semantic.Encoder.Kind = state.encoderKind
	cfg.Semantic.Encoder.Endpoint = strings.TrimSpace(state.endpoint)
	cfg.Semantic.Encoder.Model = strings.TrimSpace(state.model)
	if cfg.Semantic.Encoder.Kind == config.EncoderHTTP && cfg.Semantic.Encoder.Endpoint == "" {
		return config.Config{}, errors.New("http encoder needs an endpoint")
	}

	cfg.Output.Format = state.outputFormat
	return cfg, nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("sitemap url is required")
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http(s) url")
	}
	return nil
}

func validateRegexp(s string) error {
	_, err := relevance.NewPatternStrategy(s)
	return err
}

func validateSelector(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("selector is required")
	}
	return extract.ValidatePattern(faq.Pattern{Selector: s, Question: s, Answer: s})
}

func validateConfigPath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("path cannot be empty")
	}
	if strings.ContainsAny(s, `*?"<>|`) {
		return errors.New("invalid characters")
	}
	return nil
}

func parsePositiveInt(s, errMsg string) (int, error) {
	val, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || val <= 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseUnitFloat(s, errMsg string) (float64, error) {
	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || val < 0 || val > 1 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func validateIntString(minVal, maxVal int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.New("must be an integer")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %d and %d", minVal, maxVal)
		}
		return nil
	}
}

func validateFloatString(minVal, maxVal float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return errors.New("must be a number")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %.2f and %.2f", minVal, maxVal)
		}
		return nil
	}
}
