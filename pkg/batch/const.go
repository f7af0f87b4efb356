package batch

import (
	"fmt"
	"time"
)

// pluginName is the name of the batch plugin
const pluginName = "batch"

// Preference keys for batch processing
const (
	pluginPrefix          = pluginName + "_"
	batchConfigPrefKey    = pluginPrefix + "config_key"          // batchConfigPrefKey stores the JSON prompt library blob
	GeminiAPIKeyPrefKey   = pluginPrefix + "gemini_api_key"      // GeminiAPIKeyPrefKey is the keyring entry name for the Gemini API key
	APITierPrefKey        = pluginPrefix + "api_tier_key"        // APITierPrefKey is used to set and retrieve the int API tier
	MaxUploadSizePrefKey  = pluginPrefix + "max_upload_size_key" // MaxUploadSizePrefKey is used to set and retrieve the int longest-edge cap for uploads
	ModelPrefKey          = pluginPrefix + "model_key"           // ModelPrefKey is used to set and retrieve the transformer model name
	AutoRetryPrefKey      = pluginPrefix + "auto_retry_key"      // AutoRetryPrefKey is used to set and retrieve the boolean flag for rate limit auto retry
	SkipExistingPrefKey   = pluginPrefix + "skip_existing_key"   // SkipExistingPrefKey is used to set and retrieve the boolean flag for skipping existing outputs
	OptimizePromptPrefKey = pluginPrefix + "optimize_prompt_key" // OptimizePromptPrefKey is used to set and retrieve the boolean flag for prompt optimization
	ActivePromptPrefKey   = pluginPrefix + "active_prompt_key"   // ActivePromptPrefKey is used to set and retrieve the selected prompt name
	LastFolderPrefKey     = pluginPrefix + "last_folder_key"     // LastFolderPrefKey is used to set and retrieve the last selected image folder
)

// Internal constants
const (
	OutputDirSuffix     = "_retouched"
	OutputFileSuffix    = "_out"
	OutputFileExt       = ".jpg"
	OutputJPEGQuality   = 95
	MaxTransformRetries = 3
	RetryBaseDelay      = 30 * time.Second
	MaxPromptLength     = 500
	MaxScanWorkers      = 4
	MaxErrMsgLength     = 120
	ThumbnailSize       = 96
)

// Validation constants for the settings UI
const (
	GeminiAPIKeyRegexp  = `^AIza[0-9A-Za-z_\-]{35}$`
	PromptNameRegexp    = `^[a-zA-Z0-9][a-zA-Z0-9 _\-]{2,39}$`
	MaxPromptNameLength = 40
	MaxPromptTextLength = 2000
)

// Transform pipeline timeouts.
const (
	// TransformRequestTimeout is the total time limit for a single image
	// transform call, including upload and model generation time.
	TransformRequestTimeout = 120 * time.Second

	// CancelGracePeriod is how long Deactivate waits for an in-flight task
	// to finish before giving up on a clean shutdown.
	CancelGracePeriod = 10 * time.Second
)

// imageExtensions are the file types the folder scanner accepts.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// TaskStatus represents the lifecycle state of a single image task.
type TaskStatus int

// TaskStatus constants
const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskSucceeded
	TaskFailed
)

// String returns the string representation of a TaskStatus
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "Pending"
	case TaskRunning:
		return "Running"
	case TaskSucceeded:
		return "Succeeded"
	case TaskFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// RunStatus represents the overall state of a batch run.
type RunStatus int

// RunStatus constants
const (
	RunIdle RunStatus = iota
	RunRunning
	RunCompleted
	RunCancelled
)

// String returns the string representation of a RunStatus
func (s RunStatus) String() string {
	switch s {
	case RunIdle:
		return "Idle"
	case RunRunning:
		return "Running"
	case RunCompleted:
		return "Completed"
	case RunCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// APITier represents the Gemini API billing tier, which determines request pacing.
type APITier int

// APITier constants
const (
	TierFree APITier = iota
	Tier1
	Tier3
)

// TierDelays maps an APITier to the minimum delay between API requests.
var TierDelays = map[APITier]time.Duration{
	TierFree: 6 * time.Second,
	Tier1:    2 * time.Second,
	Tier3:    1 * time.Second,
}

// String returns the string representation of an APITier
func (t APITier) String() string {
	switch t {
	case TierFree:
		return "Free (10 requests/min)"
	case Tier1:
		return "Tier 1 (30 requests/min)"
	case Tier3:
		return "Tier 3 (60 requests/min)"
	default:
		return "Unknown"
	}
}

// Delay returns the minimum inter-request delay for an APITier
func (t APITier) Delay() time.Duration {
	return TierDelays[t]
}

// GetAPITiers returns a list of all available API tiers AS fmt.Stringer
func GetAPITiers() []fmt.Stringer {
	tiers := []APITier{
		TierFree,
		Tier1,
		Tier3,
	}
	stringers := make([]fmt.Stringer, len(tiers))
	for i, t := range tiers {
		stringers[i] = t // This is the key: assign to the interface type
	}
	return stringers
}

// MaxUploadSize represents the predefined longest-edge caps for uploaded
// images (in pixels).
type MaxUploadSize int

// MaxUploadSize constants
const (
	UploadOriginal MaxUploadSize = iota
	Upload1024
	Upload2048
	Upload3072
)

// MaxUploadSizeValues maps MaxUploadSize to its pixel value. Zero means no cap.
var MaxUploadSizeValues = map[MaxUploadSize]int{
	UploadOriginal: 0,
	Upload1024:     1024,
	Upload2048:     2048,
	Upload3072:     3072,
}

// String returns the string representation of a MaxUploadSize.
func (m MaxUploadSize) String() string {
	switch m {
	case UploadOriginal:
		return "Original Size"
	case Upload1024:
		return "1024 px"
	case Upload2048:
		return "2048 px"
	case Upload3072:
		return "3072 px"
	default:
		return "Unknown"
	}
}

// Pixels returns the longest-edge pixel value of a MaxUploadSize.
func (m MaxUploadSize) Pixels() int {
	return MaxUploadSizeValues[m]
}

// GetMaxUploadSizes returns a list of all available upload caps AS fmt.Stringer.
func GetMaxUploadSizes() []fmt.Stringer {
	sizes := []MaxUploadSize{
		UploadOriginal,
		Upload1024,
		Upload2048,
		Upload3072,
	}
	stringers := make([]fmt.Stringer, len(sizes))
	for i, m := range sizes {
		stringers[i] = m // Assign to the interface type
	}
	return stringers
}
