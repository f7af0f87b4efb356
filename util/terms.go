package util

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dixieflatline76/Retouch/asset"
	"github.com/dixieflatline76/Retouch/config"
	"github.com/dixieflatline76/Retouch/util/log"
)

var assetMgr = asset.NewManager()

// termsFileName is the marker file written under the config dir on acceptance.
const termsFileName = "terms_accepted"

// TermsAcceptance records that the user accepted the upload terms.
type TermsAcceptance struct {
	TermsVersion        string    `json:"terms_version"`
	AcceptanceTimestamp time.Time `json:"acceptance_timestamp"`
	Hash                string    `json:"hash"`
}

// generateTermsHash hashes the terms text together with the machine ID, the
// acceptance date and the app version so the receipt cannot be copied between
// machines or versions.
func generateTermsHash(termsText, version, dateStr string) string {
	machineID := getMachineID()
	data := fmt.Sprintf("%s%s%s%s", termsText, machineID, dateStr, version)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// getMachineID gets the machine ID
func getMachineID() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown-host"
	}
	return hostname
}

// HasAcceptedTerms checks whether a valid acceptance receipt exists for the
// current app version.
func HasAcceptedTerms() bool {
	termsPath := filepath.Join(config.GetPath(), termsFileName)

	data, err := os.ReadFile(termsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		log.Printf("Error reading terms acceptance file: %v", err)
		return false
	}

	var acceptance TermsAcceptance
	if err := json.Unmarshal(data, &acceptance); err != nil {
		log.Printf("Error parsing terms acceptance file: %v", err)
		return false
	}

	termsText, err := assetMgr.GetText("terms.txt")
	if err != nil {
		log.Printf("Error loading terms text: %v", err)
		return false
	}

	// Recompute with the stored acceptance date so the receipt stays valid
	// across days but breaks if the file is edited.
	dateStr := acceptance.AcceptanceTimestamp.Format("2006-01-02")
	currentHash := generateTermsHash(termsText, acceptance.TermsVersion, dateStr)

	return acceptance.Hash == currentHash && acceptance.TermsVersion == config.AppVersion
}

// MarkTermsAccepted writes the acceptance receipt for the current version.
func MarkTermsAccepted() {
	termsText, err := assetMgr.GetText("terms.txt")
	if err != nil {
		log.Printf("Error loading terms text: %v", err)
		return
	}

	now := time.Now()
	hash := generateTermsHash(termsText, config.AppVersion, now.Format("2006-01-02"))

	acceptance := TermsAcceptance{
		TermsVersion:        config.AppVersion,
		AcceptanceTimestamp: now,
		Hash:                hash,
	}

	jsonData, err := json.Marshal(acceptance)
	if err != nil {
		log.Printf("Error encoding terms acceptance: %v", err)
		return
	}

	termsPath := filepath.Join(config.GetPath(), termsFileName)
	if err := os.MkdirAll(filepath.Dir(termsPath), 0755); err != nil {
		log.Printf("Error creating config directory: %v", err)
		return
	}
	if err := os.WriteFile(termsPath, jsonData, 0644); err != nil {
		log.Printf("Error writing terms acceptance file: %v", err)
	}
}
