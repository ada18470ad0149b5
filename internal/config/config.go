package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/spf13/viper"
)

type Config struct {
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Audit       AuditConfig       `mapstructure:"audit" yaml:"audit"`
	Discovery   DiscoveryConfig   `mapstructure:"discovery" yaml:"discovery"`
	Rating      RatingConfig      `mapstructure:"rating" yaml:"rating"`
	SEO         SEOConfig         `mapstructure:"seo" yaml:"seo"`
	Security    SecurityConfig    `mapstructure:"security" yaml:"security"`
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance"`
	Mobile      MobileConfig      `mapstructure:"mobile" yaml:"mobile"`
	UI          UIConfig          `mapstructure:"ui" yaml:"ui"`
	LinkCheck   LinkCheckConfig   `mapstructure:"linkcheck" yaml:"linkcheck"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

type BrowserConfig struct {
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	NoSandbox         bool           `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	UserAgent         string         `mapstructure:"user_agent" yaml:"user_agent"`
	DesktopViewport   ViewportConfig `mapstructure:"desktop_viewport" yaml:"desktop_viewport"`
	MobileViewport    ViewportConfig `mapstructure:"mobile_viewport" yaml:"mobile_viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SettleDelay       time.Duration  `mapstructure:"settle_delay" yaml:"settle_delay"`
}

type AuditConfig struct {
	PageLimit           int           `mapstructure:"page_limit" yaml:"page_limit"`
	Timeout             time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Workers             int           `mapstructure:"workers" yaml:"workers"`
	Screenshots         bool          `mapstructure:"screenshots" yaml:"screenshots"`
	ProbeAuth           bool          `mapstructure:"probe_auth" yaml:"probe_auth"`
	ProbeInteractive    bool          `mapstructure:"probe_interactive" yaml:"probe_interactive"`
	ExerciseCredentials bool          `mapstructure:"exercise_credentials" yaml:"exercise_credentials"`
	DetectTechStack     bool          `mapstructure:"detect_tech_stack" yaml:"detect_tech_stack"`
	DetailLimit         int           `mapstructure:"detail_limit" yaml:"detail_limit"`
}

type DiscoveryConfig struct {
	MaxPages        int      `mapstructure:"max_pages" yaml:"max_pages"`
	AssetExtensions []string `mapstructure:"asset_extensions" yaml:"asset_extensions"`
}

type RatingConfig struct {
	Critical       float64 `mapstructure:"critical" yaml:"critical"`
	High           float64 `mapstructure:"high" yaml:"high"`
	Medium         float64 `mapstructure:"medium" yaml:"medium"`
	Low            float64 `mapstructure:"low" yaml:"low"`
	GoodPointBonus float64 `mapstructure:"good_point_bonus" yaml:"good_point_bonus"`
	GoodPointCap   float64 `mapstructure:"good_point_cap" yaml:"good_point_cap"`
	WarningWeight  float64 `mapstructure:"warning_weight" yaml:"warning_weight"`
	WarningCap     float64 `mapstructure:"warning_cap" yaml:"warning_cap"`
	Neutral        float64 `mapstructure:"neutral" yaml:"neutral"`
}

type SEOConfig struct {
	TitleMinLength       int     `mapstructure:"title_min_length" yaml:"title_min_length"`
	TitleMaxLength       int     `mapstructure:"title_max_length" yaml:"title_max_length"`
	DescriptionMinLength int     `mapstructure:"description_min_length" yaml:"description_min_length"`
	DescriptionMaxLength int     `mapstructure:"description_max_length" yaml:"description_max_length"`
	MinWordCount         int     `mapstructure:"min_word_count" yaml:"min_word_count"`
	MinTextRatio         float64 `mapstructure:"min_text_ratio" yaml:"min_text_ratio"`
}

type SecurityConfig struct {
	SecretPatterns       []string `mapstructure:"secret_patterns" yaml:"secret_patterns"`
	AllowedSecrets       []string `mapstructure:"allowed_secrets" yaml:"allowed_secrets"`
	MaxThirdPartyScripts int      `mapstructure:"max_third_party_scripts" yaml:"max_third_party_scripts"`
}

type PerformanceConfig struct {
	LargeImageKB             int `mapstructure:"large_image_kb" yaml:"large_image_kb"`
	DOMNodesMedium           int `mapstructure:"dom_nodes_medium" yaml:"dom_nodes_medium"`
	DOMNodesHigh             int `mapstructure:"dom_nodes_high" yaml:"dom_nodes_high"`
	MaxRenderBlockingScripts int `mapstructure:"max_render_blocking_scripts" yaml:"max_render_blocking_scripts"`
	SlowLoadMs               int `mapstructure:"slow_load_ms" yaml:"slow_load_ms"`
	SlowPaintMs              int `mapstructure:"slow_paint_ms" yaml:"slow_paint_ms"`
	MaxPageWeightKB          int `mapstructure:"max_page_weight_kb" yaml:"max_page_weight_kb"`
}

type MobileConfig struct {
	MinTouchTargetPx     int `mapstructure:"min_touch_target_px" yaml:"min_touch_target_px"`
	MaxSmallTouchTargets int `mapstructure:"max_small_touch_targets" yaml:"max_small_touch_targets"`
	MinFontSizePx        int `mapstructure:"min_font_size_px" yaml:"min_font_size_px"`
	MinInputHeightPx     int `mapstructure:"min_input_height_px" yaml:"min_input_height_px"`
}

type UIConfig struct {
	MaxFontFamilies int `mapstructure:"max_font_families" yaml:"max_font_families"`
}

type LinkCheckConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	SampleSize   int           `mapstructure:"sample_size" yaml:"sample_size"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Parallelism  int           `mapstructure:"parallelism" yaml:"parallelism"`
	BlockPrivate bool          `mapstructure:"block_private" yaml:"block_private"`
}

type ServerConfig struct {
	Port          int           `mapstructure:"port" yaml:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	HistoryLimit  int           `mapstructure:"history_limit" yaml:"history_limit"`
	FeedbackLimit int           `mapstructure:"feedback_limit" yaml:"feedback_limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".siteaudit")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          true,
			NoSandbox:         true,
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36 SiteAuditor/1.0",
			DesktopViewport:   ViewportConfig{Width: 1920, Height: 1080},
			MobileViewport:    ViewportConfig{Width: 375, Height: 667},
			NavigationTimeout: 20 * time.Second,
			SettleDelay:       1500 * time.Millisecond,
		},
		Audit: AuditConfig{
			PageLimit:           8,
			Timeout:             3 * time.Minute,
			Workers:             1,
			Screenshots:         true,
			ProbeAuth:           true,
			ProbeInteractive:    true,
			ExerciseCredentials: true,
			DetectTechStack:     true,
			DetailLimit:         10,
		},
		Discovery: DiscoveryConfig{
			MaxPages: 15,
			AssetExtensions: []string{
				".jpg", ".jpeg", ".png", ".gif", ".bmp", ".ico", ".svg", ".webp", ".avif",
				".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar",
				".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".csv",
				".mp3", ".mp4", ".avi", ".mov", ".wmv", ".webm",
				".exe", ".dmg", ".apk", ".iso",
				".css", ".js", ".json", ".xml", ".txt",
			},
		},
		Rating: RatingConfig{
			Critical:       2.0,
			High:           1.5,
			Medium:         1.0,
			Low:            0.5,
			GoodPointBonus: 0.05,
			GoodPointCap:   0.5,
			WarningWeight:  0.05,
			WarningCap:     0.25,
			Neutral:        3.0,
		},
		SEO: SEOConfig{
			TitleMinLength:       50,
			TitleMaxLength:       60,
			DescriptionMinLength: 150,
			DescriptionMaxLength: 160,
			MinWordCount:         300,
			MinTextRatio:         10,
		},
		Security: SecurityConfig{
			SecretPatterns: []string{
				`AKIA[0-9A-Z]{16}`,
				`AIza[0-9A-Za-z_\-]{35}`,
				`sk_live_[0-9a-zA-Z]{24,}`,
				`gh[pousr]_[A-Za-z0-9]{36,}`,
				`xox[baprs]-[0-9A-Za-z\-]{10,}`,
				`-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`,
				`(?i)(api[_-]?key|secret[_-]?key|access[_-]?token|auth[_-]?token)["']?\s*[:=]\s*["'][A-Za-z0-9_\-]{20,}["']`,
				`(?i)client[_-]?secret["']?\s*[:=]\s*["'][A-Za-z0-9_\-]{16,}["']`,
			},
			AllowedSecrets:       []string{},
			MaxThirdPartyScripts: 10,
		},
		Performance: PerformanceConfig{
			LargeImageKB:             500,
			DOMNodesMedium:           2500,
			DOMNodesHigh:             5000,
			MaxRenderBlockingScripts: 3,
			SlowLoadMs:               3000,
			SlowPaintMs:              2500,
			MaxPageWeightKB:          3000,
		},
		Mobile: MobileConfig{
			MinTouchTargetPx:     44,
			MaxSmallTouchTargets: 5,
			MinFontSizePx:        12,
			MinInputHeightPx:     32,
		},
		UI: UIConfig{
			MaxFontFamilies: 5,
		},
		LinkCheck: LinkCheckConfig{
			Enabled:      true,
			SampleSize:   5,
			Timeout:      8 * time.Second,
			Parallelism:  4,
			BlockPrivate: true,
		},
		Server: ServerConfig{
			Port:          8787,
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  4 * time.Minute,
			HistoryLimit:  100,
			FeedbackLimit: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Policy converts the rating section into the policy used by the report
// package.
func (r RatingConfig) Policy() report.RatingPolicy {
	return report.RatingPolicy{
		Critical:       r.Critical,
		High:           r.High,
		Medium:         r.Medium,
		Low:            r.Low,
		GoodPointBonus: r.GoodPointBonus,
		GoodPointCap:   r.GoodPointCap,
		WarningWeight:  r.WarningWeight,
		WarningCap:     r.WarningCap,
		Neutral:        r.Neutral,
	}
}

func (c *Config) Validate() error {
	validators := []func() error{
		c.validateBrowser,
		c.validateAudit,
		c.validateDiscovery,
		c.validateRating,
		c.validateSEO,
		c.validateLinkCheck,
		c.validateServer,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateBrowser() error {
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be positive")
	}
	if c.Browser.SettleDelay < 0 {
		return fmt.Errorf("browser.settle_delay must be non-negative")
	}
	for name, vp := range map[string]ViewportConfig{
		"desktop_viewport": c.Browser.DesktopViewport,
		"mobile_viewport":  c.Browser.MobileViewport,
	} {
		if vp.Width <= 0 || vp.Height <= 0 {
			return fmt.Errorf("browser.%s dimensions must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.PageLimit <= 0 {
		return fmt.Errorf("audit.page_limit must be positive")
	}
	if c.Audit.Timeout <= 0 {
		return fmt.Errorf("audit.timeout must be positive")
	}
	if c.Audit.Workers <= 0 {
		return fmt.Errorf("audit.workers must be positive")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if c.Discovery.MaxPages <= 0 {
		return fmt.Errorf("discovery.max_pages must be positive")
	}
	return nil
}

func (c *Config) validateRating() error {
	weights := []float64{c.Rating.Critical, c.Rating.High, c.Rating.Medium, c.Rating.Low}
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("rating weights must be non-negative")
		}
	}
	if c.Rating.Critical < c.Rating.High || c.Rating.High < c.Rating.Medium || c.Rating.Medium < c.Rating.Low {
		return fmt.Errorf("rating weights must not decrease with severity")
	}
	if c.Rating.Neutral < report.MinRating || c.Rating.Neutral > report.MaxRating {
		return fmt.Errorf("rating.neutral must be between %.1f and %.1f", report.MinRating, report.MaxRating)
	}
	if c.Rating.GoodPointCap < 0 || c.Rating.WarningCap < 0 {
		return fmt.Errorf("rating caps must be non-negative")
	}
	return nil
}

func (c *Config) validateSEO() error {
	if c.SEO.TitleMinLength > c.SEO.TitleMaxLength {
		return fmt.Errorf("seo.title_min_length must not exceed seo.title_max_length")
	}
	if c.SEO.DescriptionMinLength > c.SEO.DescriptionMaxLength {
		return fmt.Errorf("seo.description_min_length must not exceed seo.description_max_length")
	}
	return nil
}

func (c *Config) validateLinkCheck() error {
	if !c.LinkCheck.Enabled {
		return nil
	}
	if c.LinkCheck.SampleSize < 0 {
		return fmt.Errorf("linkcheck.sample_size must be non-negative")
	}
	if c.LinkCheck.Parallelism <= 0 {
		return fmt.Errorf("linkcheck.parallelism must be positive")
	}
	if c.LinkCheck.Timeout <= 0 {
		return fmt.Errorf("linkcheck.timeout must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.HistoryLimit <= 0 {
		return fmt.Errorf("server.history_limit must be positive")
	}
	if c.Server.FeedbackLimit <= 0 {
		return fmt.Errorf("server.feedback_limit must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}
	return nil
}

func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("browser", c.Browser)
	v.Set("audit", c.Audit)
	v.Set("discovery", c.Discovery)
	v.Set("rating", c.Rating)
	v.Set("seo", c.SEO)
	v.Set("security", c.Security)
	v.Set("performance", c.Performance)
	v.Set("mobile", c.Mobile)
	v.Set("ui", c.UI)
	v.Set("linkcheck", c.LinkCheck)
	v.Set("server", c.Server)
	v.Set("logging", c.Logging)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
