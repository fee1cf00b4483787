package offers

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SelectorConfig holds the CSS selectors and timing used to drive the offers
// page. It is read-only once handed to the automation.
type SelectorConfig struct {
	Cards    CardSelectors     `yaml:"cards"`
	Offers   OfferSelectors    `yaml:"offers"`
	Feedback FeedbackSelectors `yaml:"feedback"`
	Timing   Timing            `yaml:"timing"`
}

type CardSelectors struct {
	Switcher          string       `yaml:"switcher"`
	SwitcherType      SwitcherKind `yaml:"switcher_type"`
	SwitcherFallbacks []string     `yaml:"switcher_fallbacks"`
}

type OfferSelectors struct {
	Container             string   `yaml:"container"`
	ContainerFallbacks    []string `yaml:"container_fallbacks"`
	Card                  string   `yaml:"card"`
	CardFallbacks         []string `yaml:"card_fallbacks"`
	MerchantName          string   `yaml:"merchant_name"`
	MerchantNameFallbacks []string `yaml:"merchant_name_fallbacks"`
	AddButton             string   `yaml:"add_button"`
	AddButtonFallbacks    []string `yaml:"add_button_fallbacks"`
	AlreadyAdded          string   `yaml:"already_added"`
	AlreadyAddedFallbacks []string `yaml:"already_added_fallbacks"`
}

type FeedbackSelectors struct {
	Success          string   `yaml:"success"`
	SuccessFallbacks []string `yaml:"success_fallbacks"`
}

// Timing values are milliseconds.
type Timing struct {
	BetweenOffers   int `yaml:"between_offers"`
	AfterCardSwitch int `yaml:"after_card_switch"`
	WaitForLoad     int `yaml:"wait_for_load"`
	PollingInterval int `yaml:"polling_interval"`
	MaxWait         int `yaml:"max_wait"`

	SuccessWait    int `yaml:"success_wait"`
	ComboboxSettle int `yaml:"combobox_settle"`
	DismissSettle  int `yaml:"dismiss_settle"`
	PausePoll      int `yaml:"pause_poll"`
}

// Default timing, matching what the offers page needs in practice.
const (
	DefaultBetweenOffers   = 1500
	DefaultAfterCardSwitch = 3000
	DefaultWaitForLoad     = 3000
	DefaultPollingInterval = 100
	DefaultMaxWait         = 10000
	DefaultSuccessWait     = 5000
	DefaultComboboxSettle  = 1000
	DefaultDismissSettle   = 500
	DefaultPausePoll       = 500
)

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (t Timing) BetweenOffersDelay() time.Duration   { return ms(t.BetweenOffers) }
func (t Timing) AfterCardSwitchDelay() time.Duration { return ms(t.AfterCardSwitch) }
func (t Timing) WaitForLoadDelay() time.Duration     { return ms(t.WaitForLoad) }
func (t Timing) PollEvery() time.Duration            { return ms(t.PollingInterval) }
func (t Timing) MaxWaitTimeout() time.Duration       { return ms(t.MaxWait) }
func (t Timing) SuccessTimeout() time.Duration       { return ms(t.SuccessWait) }
func (t Timing) ComboboxSettleDelay() time.Duration  { return ms(t.ComboboxSettle) }
func (t Timing) DismissSettleDelay() time.Duration   { return ms(t.DismissSettle) }
func (t Timing) PausePollEvery() time.Duration       { return ms(t.PausePoll) }

// WithDefaults fills zero timing fields. Zero delays are legal, so only the
// polling interval and the wait bounds get defaults.
func (t Timing) WithDefaults() Timing {
	if t.PollingInterval <= 0 {
		t.PollingInterval = DefaultPollingInterval
	}
	if t.MaxWait <= 0 {
		t.MaxWait = DefaultMaxWait
	}
	if t.SuccessWait <= 0 {
		t.SuccessWait = DefaultSuccessWait
	}
	if t.PausePoll <= 0 {
		t.PausePoll = DefaultPausePoll
	}
	return t
}

// Validate checks the selectors every component depends on.
func (c SelectorConfig) Validate() error {
	required := map[string]string{
		"cards.switcher":       c.Cards.Switcher,
		"offers.container":     c.Offers.Container,
		"offers.card":          c.Offers.Card,
		"offers.merchant_name": c.Offers.MerchantName,
		"offers.add_button":    c.Offers.AddButton,
		"offers.already_added": c.Offers.AlreadyAdded,
		"feedback.success":     c.Feedback.Success,
	}
	for name, v := range required {
		if v == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, name)
		}
	}

	if c.Timing.PollingInterval < 0 || c.Timing.MaxWait < 0 || c.Timing.BetweenOffers < 0 || c.Timing.AfterCardSwitch < 0 {
		return fmt.Errorf("%w: timing values must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadSelectors reads a selector config from a YAML file, as written by the
// page analyzer, on top of base.
func LoadSelectors(path string, base SelectorConfig) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("read selectors: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SelectorConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return SelectorConfig{}, err
	}
	return cfg, nil
}

// SaveSelectors writes cfg as YAML.
func SaveSelectors(path string, cfg SelectorConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal selectors: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
