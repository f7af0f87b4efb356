package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"
	"sync"

	"github.com/dixieflatline76/Retouch/util/log"

	"fyne.io/fyne/v2"
	"github.com/dixieflatline76/Retouch/asset"
	"github.com/dixieflatline76/Retouch/config"
	"github.com/dixieflatline76/Retouch/pkg/transformer/gemini"
	"github.com/zalando/go-keyring"
)

// API key environment variables, checked in order before the keyring.
const (
	googleAPIKeyEnv = "GOOGLE_API_KEY"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
)

// Config struct to hold all configuration data
type Config struct {
	fyne.Preferences `json:"-"`
	Prompts          []Prompt       `json:"prompts"` // Prompt library in insertion order
	assetMgr         *asset.Manager // Asset manager
	userid           string
	mu               sync.RWMutex // Mutex for thread-safe access
}

// Prompt struct to hold a named transformation instruction
type Prompt struct {
	Name        string `json:"name"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
	UseCase     string `json:"use_case,omitempty"`
}

var (
	cfgInstance *Config
	cfgOnce     sync.Once
)

// GetConfig returns the singleton instance of Config.
func GetConfig(p fyne.Preferences) *Config {
	cfgOnce.Do(func() {
		u, e := user.Current()
		if e != nil {
			log.Fatalf("failed to initialize %s: %s", config.AppName, e)
		}
		cfgInstance = &Config{
			Preferences: p,
			Prompts:     make([]Prompt, 0),
			assetMgr:    asset.NewManager(),
			userid:      u.Uid,
		}
		if err := cfgInstance.loadFromPrefs(); err != nil {
			log.Printf("Error loading config: %v", err)
		}
	})
	return cfgInstance
}

// loadFromPrefs loads the prompt library from preferences, seeding from the
// bundled defaults on first run.
func (c *Config) loadFromPrefs() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	defaultCfg, err := c.assetMgr.GetText("default_prompts.json")
	if err != nil {
		return err
	}
	cfgText := c.StringWithFallback(batchConfigPrefKey, defaultCfg)

	if err := json.Unmarshal([]byte(cfgText), c); err != nil {
		return err
	}

	// Data migration: backfill missing prompt names
	promptsChanged := false
	for i, p := range c.Prompts {
		if strings.TrimSpace(p.Name) == "" {
			c.Prompts[i].Name = fmt.Sprintf("prompt-%d", i+1)
			promptsChanged = true
		}
	}

	// Data migration: drop duplicate names, keeping the first occurrence
	seen := make(map[string]bool)
	unique := make([]Prompt, 0, len(c.Prompts))
	for _, p := range c.Prompts {
		if seen[p.Name] {
			promptsChanged = true
			continue
		}
		seen[p.Name] = true
		unique = append(unique, p)
	}
	c.Prompts = unique

	if promptsChanged {
		// Re-save the library with the repaired names immediately
		c.save()
	}

	return nil
}

// AddPrompt appends a new prompt to the library.
func (c *Config) AddPrompt(name, text, description, useCase string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("prompt name must not be empty")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("prompt text must not be empty")
	}
	if _, err := c.findPromptIndex(name); err == nil {
		return fmt.Errorf("duplicate prompt: %s already exists", name)
	}

	c.Prompts = append(c.Prompts, Prompt{
		Name:        name,
		Text:        text,
		Description: description,
		UseCase:     useCase,
	})
	c.save()
	return nil
}

// UpdatePrompt replaces the text and metadata of an existing prompt.
func (c *Config) UpdatePrompt(name, text, description, useCase string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return errors.New("prompt text must not be empty")
	}

	index, err := c.findPromptIndex(name)
	if err != nil {
		return err
	}

	c.Prompts[index].Text = text
	c.Prompts[index].Description = description
	c.Prompts[index].UseCase = useCase
	c.save()
	return nil
}

// RemovePrompt removes the prompt with the specified name.
func (c *Config) RemovePrompt(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	index, err := c.findPromptIndex(name)
	if err != nil {
		return err
	}

	c.Prompts = append(c.Prompts[:index], c.Prompts[index+1:]...)
	c.save()
	return nil
}

// findPromptIndex is a helper to find a prompt by name in the library
func (c *Config) findPromptIndex(name string) (int, error) {
	for i, p := range c.Prompts {
		if p.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
}

// GetPrompt returns the prompt with the specified name.
func (c *Config) GetPrompt(name string) (Prompt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	index, err := c.findPromptIndex(name)
	if err != nil {
		return Prompt{}, err
	}
	return c.Prompts[index], nil
}

// GetPrompts returns a copy of the prompt library in insertion order.
func (c *Config) GetPrompts() []Prompt {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prompts := make([]Prompt, len(c.Prompts))
	copy(prompts, c.Prompts)
	return prompts
}

// GetActivePrompt returns the currently selected prompt, falling back to the
// first library entry when the selection no longer exists.
func (c *Config) GetActivePrompt() (Prompt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := c.StringWithFallback(ActivePromptPrefKey, "")
	if name != "" {
		if index, err := c.findPromptIndex(name); err == nil {
			return c.Prompts[index], nil
		}
	}
	if len(c.Prompts) > 0 {
		return c.Prompts[0], nil
	}
	return Prompt{}, errors.New("prompt library is empty")
}

// SetActivePromptName records the selected prompt name.
func (c *Config) SetActivePromptName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetString(ActivePromptPrefKey, name)
}

// GetAPITier returns the API tier enumeration from the config, or the default value if not set or invalid
func (c *Config) GetAPITier() APITier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return APITier(c.IntWithFallback(APITierPrefKey, int(TierFree))) // Default to the free tier
}

// SetAPITier sets the API tier enumeration and saves it
func (c *Config) SetAPITier(tier APITier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetInt(APITierPrefKey, int(tier))
}

// GetMaxUploadSize returns the longest-edge cap enumeration from the config, or the default value if not set or invalid
func (c *Config) GetMaxUploadSize() MaxUploadSize {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return MaxUploadSize(c.IntWithFallback(MaxUploadSizePrefKey, int(Upload2048))) // Default to 2048 px
}

// SetMaxUploadSize sets the longest-edge cap enumeration and saves it
func (c *Config) SetMaxUploadSize(size MaxUploadSize) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetInt(MaxUploadSizePrefKey, int(size))
}

// GetModel returns the transformer model name from the config.
func (c *Config) GetModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.StringWithFallback(ModelPrefKey, gemini.DefaultModel)
}

// SetModel sets the transformer model name.
func (c *Config) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetString(ModelPrefKey, model)
}

// GetAutoRetry returns the rate limit auto retry preference from the config.
func (c *Config) GetAutoRetry() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.BoolWithFallback(AutoRetryPrefKey, true) // Default to true
}

// SetAutoRetry sets the rate limit auto retry preference.
func (c *Config) SetAutoRetry(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetBool(AutoRetryPrefKey, enabled)
}

// GetSkipExisting returns the skip existing outputs preference from the config.
func (c *Config) GetSkipExisting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.BoolWithFallback(SkipExistingPrefKey, true) // Default to true
}

// SetSkipExisting sets the skip existing outputs preference.
func (c *Config) SetSkipExisting(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetBool(SkipExistingPrefKey, enabled)
}

// GetOptimizePrompt returns the prompt optimization preference from the config.
func (c *Config) GetOptimizePrompt() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.BoolWithFallback(OptimizePromptPrefKey, true) // Default to true
}

// SetOptimizePrompt sets the prompt optimization preference.
func (c *Config) SetOptimizePrompt(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetBool(OptimizePromptPrefKey, enabled)
}

// GetLastFolder returns the last selected image folder.
func (c *Config) GetLastFolder() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.StringWithFallback(LastFolderPrefKey, "")
}

// SetLastFolder records the last selected image folder.
func (c *Config) SetLastFolder(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetString(LastFolderPrefKey, path)
}

// DevAPIKey is a Gemini API key injected with -ldflags "-X" into internal
// test builds. Release builds leave it empty.
var DevAPIKey string

// GetAPIKey returns the Gemini API key. Environment variables take precedence
// over the keyring so packaged and headless launches behave the same way.
func (c *Config) GetAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if key := os.Getenv(googleAPIKeyEnv); key != "" {
		return key
	}
	if key := os.Getenv(geminiAPIKeyEnv); key != "" {
		return key
	}

	key, err := keyring.Get(GeminiAPIKeyPrefKey, c.userid)
	if err != nil {
		// Log only if it's not a "not found" error to avoid noise on first run
		if !errors.Is(err, keyring.ErrNotFound) {
			log.Printf("failed to retrieve Gemini API key from keyring: %v", err)
		}
		return DevAPIKey
	}
	if key == "" {
		return DevAPIKey
	}
	return key
}

// SetAPIKey sets the Gemini API key in the keyring.
func (c *Config) SetAPIKey(apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := keyring.Set(GeminiAPIKeyPrefKey, c.userid, apiKey)
	if err != nil {
		log.Printf("failed to save Gemini API key to keyring: %v", err)
	}
}

// HasAPIKey reports whether an API key is available from any source.
func (c *Config) HasAPIKey() bool {
	return c.GetAPIKey() != ""
}

// GetAssetManager returns the asset manager
func (c *Config) GetAssetManager() *asset.Manager {
	return c.assetMgr
}

// Save saves the current prompt library to preferences
func (c *Config) save() {
	// Don't lock the mutex here because we're already holding it in all calling functions
	data, err := json.MarshalIndent(c, "", "  ") // Use indentation for readability
	if err != nil {
		log.Fatalf("Error encoding config data: %v", err)
	}

	c.SetString(batchConfigPrefKey, string(data))
}
