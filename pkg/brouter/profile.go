package brouter

import (
	"regexp"

	"github.com/lintang-b-s/brouter-client/pkg/util"
)

// brouter resolves a profile name to <name>.brf inside its profile
// directories and passes it through the query string, so only characters
// that are inert in both places are accepted.
const profilePattern = `^[A-Za-z0-9_-]{1,128}$`

// ProfileValidator checks routing profile names. The zero value is not usable;
// build one with NewProfileValidator and share it.
type ProfileValidator struct {
	re *regexp.Regexp
}

func NewProfileValidator() *ProfileValidator {
	return &ProfileValidator{re: regexp.MustCompile(profilePattern)}
}

func (pv *ProfileValidator) Valid(name string) bool {
	return pv.re.MatchString(name)
}

// Validate fails with util.ErrInvalidProfile, naming the rejected text.
func (pv *ProfileValidator) Validate(name string) error {
	if !pv.Valid(name) {
		return util.NewErrorf(util.ErrInvalidProfile, "invalid profile %q: must match %s", name, profilePattern)
	}
	return nil
}
