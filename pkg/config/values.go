package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Values holds scalar configuration values.
// Fields ending in *Set (e.g., HeadlessSet) track whether that field was explicitly
// set in config. This allows distinguishing explicit false/0 from "not set", enabling
// proper merge behavior where local config can override global config with zero values.
type Values struct {
	// target
	TargetURL      string
	InputSelector  string
	InputRole      string
	InputName      string
	OutputSelector string

	// browser
	Backend            string // playwright or chrome
	Browser            string // chromium, firefox or webkit, playwright only
	Headless           bool
	HeadlessSet        bool
	InstallBrowsers    bool
	InstallBrowsersSet bool

	// timing, all in milliseconds
	PageLoadMs              int
	PageLoadMsSet           bool
	DiscoveryTimeoutMs      int
	DiscoveryTimeoutMsSet   bool
	AfterClearMs            int
	AfterClearMsSet         bool
	SettleMs                int
	SettleMsSet             bool
	SettlePolicy            string // fixed or confirm
	ConvergenceTimeoutMs    int
	ConvergenceTimeoutMsSet bool
	PartialTimeoutMs        int
	PartialTimeoutMsSet     bool
	BetweenCasesMs          int
	BetweenCasesMsSet       bool
	PollIntervalMs          int
	PollIntervalMsSet       bool
	TypingDelayMs           int
	TypingDelayMsSet        bool

	// run
	Repeat            int
	RepeatSet         bool
	ReloadEachCase    bool
	ReloadEachCaseSet bool
	CatalogFile       string
	ReportDir         string

	// notifications
	NotifyChannels        []string
	NotifyChannelsSet     bool // tracks if notify_channels was explicitly set, empty value disables
	NotifyOnError         bool
	NotifyOnErrorSet      bool
	NotifyOnComplete      bool
	NotifyOnCompleteSet   bool
	NotifyTimeoutMs       int
	NotifyTimeoutMsSet    bool
	NotifyTelegramToken   string
	NotifyTelegramChat    string
	NotifySlackToken      string
	NotifySlackChannel    string
	NotifySMTPHost        string
	NotifySMTPPort        int
	NotifySMTPPortSet     bool
	NotifySMTPUsername    string
	NotifySMTPPassword    string
	NotifySMTPStartTLS    bool
	NotifySMTPStartTLSSet bool
	NotifyEmailFrom       string
	NotifyEmailTo         []string
	NotifyEmailToSet      bool
	NotifyWebhookURLs     []string
	NotifyWebhookURLsSet  bool
	NotifyCustomScript    string
}

// valuesLoader implements ValuesLoader with embedded filesystem fallback.
type valuesLoader struct {
	embedFS embed.FS
}

// newValuesLoader creates a new valuesLoader with the given embedded filesystem.
func newValuesLoader(embedFS embed.FS) *valuesLoader {
	return &valuesLoader{embedFS: embedFS}
}

// Load loads values from config files with fallback chain: local → global → embedded.
// localConfigPath and globalConfigPath are full paths to config files (not directories).
//
//nolint:dupl // intentional structural similarity with colorLoader.Load
func (vl *valuesLoader) Load(localConfigPath, globalConfigPath string) (Values, error) {
	embedded, err := vl.parseValuesFromEmbedded()
	if err != nil {
		return Values{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	global, err := vl.parseValuesFromFile(globalConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse global config: %w", err)
	}

	local, err := vl.parseValuesFromFile(localConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse local config: %w", err)
	}

	// merge: embedded → global → local (local wins)
	result := embedded
	result.mergeFrom(&global)
	result.mergeFrom(&local)

	return result, nil
}

// parseValuesFromFile reads a config file and parses it into Values.
// returns empty Values (not error) if file doesn't exist or contains only comments/whitespace.
func (vl *valuesLoader) parseValuesFromFile(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return Values{}, nil
		}
		return Values{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.TrimSpace(stripComments(string(data))) == "" {
		return Values{}, nil
	}

	return vl.parseValuesFromBytes(data)
}

// parseValuesFromEmbedded parses values from the embedded defaults/config file.
func (vl *valuesLoader) parseValuesFromEmbedded() (Values, error) {
	data, err := vl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return Values{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	return vl.parseValuesFromBytes(data)
}

// parseValuesFromBytes parses configuration from a byte slice into Values.
func (vl *valuesLoader) parseValuesFromBytes(data []byte) (Values, error) {
	// ignoreInlineComment: true prevents # from being treated as inline comment marker,
	// css selectors like #output depend on it
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return Values{}, fmt.Errorf("parse config: %w", err)
	}

	var v Values
	section := cfg.Section("") // default section (no section header)

	strKeys := []struct {
		key   string
		field *string
	}{
		{"target_url", &v.TargetURL},
		{"input_selector", &v.InputSelector},
		{"input_role", &v.InputRole},
		{"input_name", &v.InputName},
		{"output_selector", &v.OutputSelector},
		{"backend", &v.Backend},
		{"browser", &v.Browser},
		{"settle_policy", &v.SettlePolicy},
		{"catalog_file", &v.CatalogFile},
		{"report_dir", &v.ReportDir},
		{"notify_telegram_token", &v.NotifyTelegramToken},
		{"notify_telegram_chat", &v.NotifyTelegramChat},
		{"notify_slack_token", &v.NotifySlackToken},
		{"notify_slack_channel", &v.NotifySlackChannel},
		{"notify_smtp_host", &v.NotifySMTPHost},
		{"notify_smtp_username", &v.NotifySMTPUsername},
		{"notify_smtp_password", &v.NotifySMTPPassword},
		{"notify_email_from", &v.NotifyEmailFrom},
		{"notify_custom_script", &v.NotifyCustomScript},
	}
	for _, sk := range strKeys {
		if key, err := section.GetKey(sk.key); err == nil {
			*sk.field = strings.TrimSpace(key.String())
		}
	}

	boolKeys := []struct {
		key   string
		field *bool
		set   *bool
	}{
		{"headless", &v.Headless, &v.HeadlessSet},
		{"install_browsers", &v.InstallBrowsers, &v.InstallBrowsersSet},
		{"reload_each_case", &v.ReloadEachCase, &v.ReloadEachCaseSet},
		{"notify_on_error", &v.NotifyOnError, &v.NotifyOnErrorSet},
		{"notify_on_complete", &v.NotifyOnComplete, &v.NotifyOnCompleteSet},
		{"notify_smtp_starttls", &v.NotifySMTPStartTLS, &v.NotifySMTPStartTLSSet},
	}
	for _, bk := range boolKeys {
		key, err := section.GetKey(bk.key)
		if err != nil {
			continue
		}
		val, boolErr := key.Bool()
		if boolErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", bk.key, boolErr)
		}
		*bk.field, *bk.set = val, true
	}

	intKeys := []struct {
		key   string
		field *int
		set   *bool
	}{
		{"page_load_ms", &v.PageLoadMs, &v.PageLoadMsSet},
		{"discovery_timeout_ms", &v.DiscoveryTimeoutMs, &v.DiscoveryTimeoutMsSet},
		{"after_clear_ms", &v.AfterClearMs, &v.AfterClearMsSet},
		{"settle_ms", &v.SettleMs, &v.SettleMsSet},
		{"convergence_timeout_ms", &v.ConvergenceTimeoutMs, &v.ConvergenceTimeoutMsSet},
		{"partial_timeout_ms", &v.PartialTimeoutMs, &v.PartialTimeoutMsSet},
		{"between_cases_ms", &v.BetweenCasesMs, &v.BetweenCasesMsSet},
		{"poll_interval_ms", &v.PollIntervalMs, &v.PollIntervalMsSet},
		{"typing_delay_ms", &v.TypingDelayMs, &v.TypingDelayMsSet},
		{"repeat", &v.Repeat, &v.RepeatSet},
		{"notify_timeout_ms", &v.NotifyTimeoutMs, &v.NotifyTimeoutMsSet},
		{"notify_smtp_port", &v.NotifySMTPPort, &v.NotifySMTPPortSet},
	}
	for _, ik := range intKeys {
		key, err := section.GetKey(ik.key)
		if err != nil {
			continue
		}
		val, intErr := key.Int()
		if intErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", ik.key, intErr)
		}
		if val < 0 {
			return Values{}, fmt.Errorf("invalid %s: must be non-negative, got %d", ik.key, val)
		}
		*ik.field, *ik.set = val, true
	}

	// comma-separated lists, an empty value still counts as set
	listKeys := []struct {
		key   string
		field *[]string
		set   *bool
	}{
		{"notify_channels", &v.NotifyChannels, &v.NotifyChannelsSet},
		{"notify_email_to", &v.NotifyEmailTo, &v.NotifyEmailToSet},
		{"notify_webhook_urls", &v.NotifyWebhookURLs, &v.NotifyWebhookURLsSet},
	}
	for _, lk := range listKeys {
		if key, err := section.GetKey(lk.key); err == nil {
			*lk.field, *lk.set = splitList(key.String()), true
		}
	}

	if v.Backend != "" && v.Backend != "playwright" && v.Backend != "chrome" {
		return Values{}, fmt.Errorf("invalid backend %q, must be playwright or chrome", v.Backend)
	}
	if v.SettlePolicy != "" && v.SettlePolicy != "fixed" && v.SettlePolicy != "confirm" {
		return Values{}, fmt.Errorf("invalid settle_policy %q, must be fixed or confirm", v.SettlePolicy)
	}

	v.CatalogFile = expandTilde(v.CatalogFile)
	v.ReportDir = expandTilde(v.ReportDir)
	v.NotifyCustomScript = expandTilde(v.NotifyCustomScript)

	return v, nil
}

// splitList splits a comma-separated value, dropping empty elements.
func splitList(val string) []string {
	var res []string
	for p := range strings.SplitSeq(val, ",") {
		if t := strings.TrimSpace(p); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// expandTilde expands a leading ~/ to the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// mergeFrom merges non-empty values from src into dst.
//
//nolint:gocyclo // flat list of per-field merges
func (dst *Values) mergeFrom(src *Values) {
	mergeStr := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	mergeInt := func(d *int, dSet *bool, s int, sSet bool) {
		if sSet {
			*d, *dSet = s, true
		}
	}
	mergeBool := func(d, dSet *bool, s, sSet bool) {
		if sSet {
			*d, *dSet = s, true
		}
	}
	mergeList := func(d *[]string, dSet *bool, s []string, sSet bool) {
		if sSet {
			*d, *dSet = s, true
		}
	}

	mergeStr(&dst.TargetURL, src.TargetURL)
	mergeStr(&dst.InputSelector, src.InputSelector)
	mergeStr(&dst.InputRole, src.InputRole)
	mergeStr(&dst.InputName, src.InputName)
	mergeStr(&dst.OutputSelector, src.OutputSelector)
	mergeStr(&dst.Backend, src.Backend)
	mergeStr(&dst.Browser, src.Browser)
	mergeBool(&dst.Headless, &dst.HeadlessSet, src.Headless, src.HeadlessSet)
	mergeBool(&dst.InstallBrowsers, &dst.InstallBrowsersSet, src.InstallBrowsers, src.InstallBrowsersSet)

	mergeInt(&dst.PageLoadMs, &dst.PageLoadMsSet, src.PageLoadMs, src.PageLoadMsSet)
	mergeInt(&dst.DiscoveryTimeoutMs, &dst.DiscoveryTimeoutMsSet, src.DiscoveryTimeoutMs, src.DiscoveryTimeoutMsSet)
	mergeInt(&dst.AfterClearMs, &dst.AfterClearMsSet, src.AfterClearMs, src.AfterClearMsSet)
	mergeInt(&dst.SettleMs, &dst.SettleMsSet, src.SettleMs, src.SettleMsSet)
	mergeStr(&dst.SettlePolicy, src.SettlePolicy)
	mergeInt(&dst.ConvergenceTimeoutMs, &dst.ConvergenceTimeoutMsSet, src.ConvergenceTimeoutMs, src.ConvergenceTimeoutMsSet)
	mergeInt(&dst.PartialTimeoutMs, &dst.PartialTimeoutMsSet, src.PartialTimeoutMs, src.PartialTimeoutMsSet)
	mergeInt(&dst.BetweenCasesMs, &dst.BetweenCasesMsSet, src.BetweenCasesMs, src.BetweenCasesMsSet)
	mergeInt(&dst.PollIntervalMs, &dst.PollIntervalMsSet, src.PollIntervalMs, src.PollIntervalMsSet)
	mergeInt(&dst.TypingDelayMs, &dst.TypingDelayMsSet, src.TypingDelayMs, src.TypingDelayMsSet)

	mergeInt(&dst.Repeat, &dst.RepeatSet, src.Repeat, src.RepeatSet)
	mergeBool(&dst.ReloadEachCase, &dst.ReloadEachCaseSet, src.ReloadEachCase, src.ReloadEachCaseSet)
	mergeStr(&dst.CatalogFile, src.CatalogFile)
	mergeStr(&dst.ReportDir, src.ReportDir)

	mergeList(&dst.NotifyChannels, &dst.NotifyChannelsSet, src.NotifyChannels, src.NotifyChannelsSet)
	mergeBool(&dst.NotifyOnError, &dst.NotifyOnErrorSet, src.NotifyOnError, src.NotifyOnErrorSet)
	mergeBool(&dst.NotifyOnComplete, &dst.NotifyOnCompleteSet, src.NotifyOnComplete, src.NotifyOnCompleteSet)
	mergeInt(&dst.NotifyTimeoutMs, &dst.NotifyTimeoutMsSet, src.NotifyTimeoutMs, src.NotifyTimeoutMsSet)
	mergeStr(&dst.NotifyTelegramToken, src.NotifyTelegramToken)
	mergeStr(&dst.NotifyTelegramChat, src.NotifyTelegramChat)
	mergeStr(&dst.NotifySlackToken, src.NotifySlackToken)
	mergeStr(&dst.NotifySlackChannel, src.NotifySlackChannel)
	mergeStr(&dst.NotifySMTPHost, src.NotifySMTPHost)
	mergeInt(&dst.NotifySMTPPort, &dst.NotifySMTPPortSet, src.NotifySMTPPort, src.NotifySMTPPortSet)
	mergeStr(&dst.NotifySMTPUsername, src.NotifySMTPUsername)
	mergeStr(&dst.NotifySMTPPassword, src.NotifySMTPPassword)
	mergeBool(&dst.NotifySMTPStartTLS, &dst.NotifySMTPStartTLSSet, src.NotifySMTPStartTLS, src.NotifySMTPStartTLSSet)
	mergeStr(&dst.NotifyEmailFrom, src.NotifyEmailFrom)
	mergeList(&dst.NotifyEmailTo, &dst.NotifyEmailToSet, src.NotifyEmailTo, src.NotifyEmailToSet)
	mergeList(&dst.NotifyWebhookURLs, &dst.NotifyWebhookURLsSet, src.NotifyWebhookURLs, src.NotifyWebhookURLsSet)
	mergeStr(&dst.NotifyCustomScript, src.NotifyCustomScript)
}
