package resolver

import (
	"strconv"
	"strings"
)

// EnvPrefix is the fixed prefix for configuration override variables.
const EnvPrefix = "CONFIG_"

// envMappings pins the documented override variables to their dotted paths.
// Variables outside this table fall back to the generic transform below.
var envMappings = map[string]string{
	"CONFIG_BRANDING_COMPANY_NAME":           "branding.companyName",
	"CONFIG_BRANDING_LOGO_URL":               "branding.logoUrl",
	"CONFIG_BRANDING_PRIMARY_COLOR":          "branding.primaryColor",
	"CONFIG_BRANDING_SECONDARY_COLOR":        "branding.secondaryColor",
	"CONFIG_FEATURES_CHAT_ENABLED":           "features.chatEnabled",
	"CONFIG_FEATURES_NOTIFICATIONS_ENABLED":  "features.notificationsEnabled",
	"CONFIG_FEATURES_ANALYTICS_ENABLED":      "features.analyticsEnabled",
	"CONFIG_FEATURES_VOICE_ENABLED":          "features.voiceEnabled",
	"CONFIG_UI_LAYOUT":                       "ui.layout",
	"CONFIG_UI_DARK_MODE":                    "ui.darkMode",
	"CONFIG_AI_MODEL":                        "ai.model",
	"CONFIG_AI_TEMPERATURE":                  "ai.temperature",
	"CONFIG_AI_MAX_TOKENS":                   "ai.maxTokens",
	"CONFIG_LANGUAGES_DEFAULT":               "languages.default",
	"CONFIG_SECURITY_RATE_LIMIT":             "security.rateLimit",
	"CONFIG_NOTIFICATIONS_DIGEST_FREQUENCY":  "notifications.digestFrequency",
	"CONFIG_LIMITS_MAX_SESSIONS":             "limits.maxSessions",
	"CONFIG_LIMITS_MAX_MESSAGES_PER_SESSION": "limits.maxMessagesPerSession",
}

// EnvSource builds the environment override source from a raw environ slice
// (as returned by os.Environ). Values are coerced: "true"/"false" become
// booleans, integer-looking values become ints, float-looking values become
// floats, everything else stays a string.
func EnvSource(environ []string) Source {
	values := make(map[string]any)
	for _, entry := range environ {
		name, raw, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		path := envMappings[name]
		if path == "" {
			path = transformEnvKey(name)
		}
		if path == "" {
			continue
		}
		values[path] = coerceEnvValue(raw)
	}
	return Source{Origin: OriginEnv, Values: values}
}

// transformEnvKey converts CONFIG_<SECTION>_<SNAKE_KEY> into a dotted
// camelCase path: CONFIG_FEATURES_EXPORT_ENABLED -> features.exportEnabled.
func transformEnvKey(name string) string {
	trimmed := strings.TrimPrefix(name, EnvPrefix)
	parts := strings.FieldsFunc(strings.ToLower(trimmed), func(r rune) bool {
		return r == '_'
	})
	if len(parts) < 2 {
		return ""
	}
	section := parts[0]
	key := parts[1]
	for _, part := range parts[2:] {
		key += strings.ToUpper(part[:1]) + part[1:]
	}
	return section + "." + key
}

func coerceEnvValue(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
