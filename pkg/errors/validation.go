package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxPackageNameLen = 256

// ValidatePackageName checks the floor every package name must clear before
// it reaches a closure or a host: nonempty, at most 256 characters, no
// control characters, and none of the sequences that could escape a
// directory ("..", "//", backslash). Repository documents may impose
// stricter rules on top.
func ValidatePackageName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidRef, "package name cannot be empty")
	case len(name) > maxPackageNameLen:
		return New(ErrCodeInvalidRef, "package name too long (max %d characters)", maxPackageNameLen)
	case strings.ContainsFunc(name, unicode.IsControl):
		return New(ErrCodeInvalidRef, "package name contains control characters")
	}

	for _, seq := range []string{"..", "//", `\`} {
		if strings.Contains(name, seq) {
			return New(ErrCodeInvalidRef, "package name contains invalid characters: %q", seq)
		}
	}
	return nil
}

// ValidateAssetName checks an asset filename. Asset names become filenames
// on the destination and multipart field filenames, so they must be simple
// visible basenames.
func ValidateAssetName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidInput, "asset name cannot be empty")
	case strings.ContainsAny(name, `/\`):
		return New(ErrCodeInvalidInput, "asset name cannot contain path separators")
	case strings.HasPrefix(name, "."):
		return New(ErrCodeInvalidInput, "asset name cannot be a hidden file")
	}
	return nil
}

// ValidateURL ensures a repository URL uses the http or https scheme.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	scheme, _, ok := strings.Cut(rawURL, "://")
	if !ok || (scheme != "http" && scheme != "https") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

// aliasRegex matches valid repository alias names: a short handle that can
// never be confused with a URL or a dependency string.
var aliasRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateAlias validates a repository alias name.
func ValidateAlias(alias string) error {
	switch {
	case alias == "":
		return New(ErrCodeInvalidInput, "alias cannot be empty")
	case len(alias) > 128:
		return New(ErrCodeInvalidInput, "alias too long (max 128 characters)")
	case !aliasRegex.MatchString(alias):
		return New(ErrCodeInvalidInput, "invalid alias: %q", alias)
	}
	return nil
}
