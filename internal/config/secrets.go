package config

import "os"

// APIKeys holds credentials read from the process environment at adapter
// initialization. A missing key disables the owning adapter cleanly.
type APIKeys struct {
	FirecrawlAPIKey string
	ExaAPIKey       string
	GoogleAPIKey    string
	GoogleCSEID     string
	SerpAPIKey      string
	BraveAPIKey     string
	MajesticAPIKey  string
	ESUsername      string
	ESPassword      string
}

// APIKeysFromEnv reads every supported credential from the environment.
func APIKeysFromEnv() APIKeys {
	return APIKeys{
		FirecrawlAPIKey: os.Getenv("FIRECRAWL_API_KEY"),
		ExaAPIKey:       os.Getenv("EXA_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		GoogleCSEID:     os.Getenv("GOOGLE_CSE_ID"),
		SerpAPIKey:      os.Getenv("SERPAPI_KEY"),
		BraveAPIKey:     os.Getenv("BRAVE_API_KEY"),
		MajesticAPIKey:  os.Getenv("MAJESTIC_API_KEY"),
		ESUsername:      os.Getenv("ES_USERNAME"),
		ESPassword:      os.Getenv("ES_PASSWORD"),
	}
}

// HasGoogle reports whether Google Custom Search is usable.
func (k APIKeys) HasGoogle() bool {
	return k.GoogleAPIKey != "" && k.GoogleCSEID != ""
}
