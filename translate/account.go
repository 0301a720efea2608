package translate

import "github.com/goliatone/go-account-settings/pkg/apierror"

// SocialPlatforms lists the platforms flattened into social_link_<id> fields,
// in the order they are packed on write.
var SocialPlatforms = []string{"twitter", "facebook", "linkedin"}

// SocialLinkField returns the unified field name for platform.
func SocialLinkField(platform string) string {
	return "social_link_" + platform
}

// SocialLinkFields returns the unified social link field names.
func SocialLinkFields() []string {
	fields := make([]string, len(SocialPlatforms))
	for i, platform := range SocialPlatforms {
		fields[i] = SocialLinkField(platform)
	}
	return fields
}

// AccountToUnified converts an account payload into unified fields. time_zone
// is dropped, social links are flattened (a platform missing from the list
// becomes "") and a language proficiency list collapses to its first code.
func AccountToUnified(wire map[string]any) Unified {
	out := Unified(copyMap(wire))
	delete(out, FieldTimeZone)
	delete(out, FieldSocialLinks)

	links := socialLinksByPlatform(wire[FieldSocialLinks])
	for _, platform := range SocialPlatforms {
		out[SocialLinkField(platform)] = links[platform]
	}

	if list, ok := wire[FieldLanguageProficiencies].([]any); ok {
		code := ""
		if len(list) > 0 {
			if entry, ok := list[0].(map[string]any); ok {
				code, _ = entry["code"].(string)
			}
		}
		out[FieldLanguageProficiencies] = code
	}

	return out
}

// AccountToWire converts committed unified fields into an account merge patch.
// Only fields present in commit appear in the result.
func AccountToWire(commit Unified) map[string]any {
	out := copyMap(commit)
	delete(out, FieldTimeZone)

	var links []any
	for _, platform := range SocialPlatforms {
		field := SocialLinkField(platform)
		value, ok := commit[field]
		if !ok {
			continue
		}
		delete(out, field)
		link, _ := value.(string)
		links = append(links, map[string]any{
			"platform":    platform,
			"social_link": link,
		})
	}
	if links != nil {
		out[FieldSocialLinks] = links
	}

	if value, ok := commit[FieldLanguageProficiencies]; ok {
		if code, _ := value.(string); code != "" {
			out[FieldLanguageProficiencies] = []any{map[string]any{"code": code}}
		} else {
			out[FieldLanguageProficiencies] = []any{}
		}
	}

	if value, ok := commit[FieldYearOfBirth]; ok {
		if value == nil || value == "" {
			out[FieldYearOfBirth] = nil
		}
	}

	return out
}

// AccountFieldErrors maps account field errors onto unified fields. The
// server reports social link problems under one composite key, which is
// fanned out to every social_link_<platform> field.
func AccountFieldErrors(fields apierror.FieldErrors) apierror.FieldErrors {
	return fields.FanOut(FieldSocialLinks, SocialLinkFields()...)
}

func socialLinksByPlatform(raw any) map[string]string {
	out := make(map[string]string, len(SocialPlatforms))
	for _, platform := range SocialPlatforms {
		out[platform] = ""
	}
	list, ok := raw.([]any)
	if !ok {
		return out
	}
	seen := map[string]bool{}
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		platform, _ := entry["platform"].(string)
		if _, known := out[platform]; !known || seen[platform] {
			continue
		}
		seen[platform] = true
		link, _ := entry["social_link"].(string)
		out[platform] = link
	}
	return out
}

// PreferencesToUnified copies a preferences payload unchanged.
func PreferencesToUnified(wire map[string]any) Unified {
	return Unified(copyMap(wire))
}

// PreferencesToWire copies committed preference fields unchanged.
func PreferencesToWire(commit Unified) map[string]any {
	return copyMap(commit)
}
