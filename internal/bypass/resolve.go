// Package bypass keeps the traffic of excluded local applications out of the
// tunnel. Applications are identified by the local user they run as, given
// either as a user name or a numeric uid.
package bypass

import (
	"errors"
	"fmt"
	"os/user"
	"slices"
	"strconv"
	"strings"
)

// ErrUnsupported is returned when exclusions are requested on a platform that
// cannot enforce them.
var ErrUnsupported = errors.New("bypass: app exclusion is not supported on this platform")

// lookupUser is replaced in tests.
var lookupUser = user.Lookup

// ResolveUID maps an excluded app entry to a uid. Numeric entries are taken
// as-is; anything else must name an existing local user.
func ResolveUID(app string) (uint32, error) {
	app = strings.TrimSpace(app)
	if app == "" {
		return 0, errors.New("bypass: empty app entry")
	}
	if n, err := strconv.ParseUint(app, 10, 32); err == nil {
		return uint32(n), nil
	}
	u, err := lookupUser(app)
	if err != nil {
		return 0, fmt.Errorf("bypass: resolve %q: %w", app, err)
	}
	n, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bypass: resolve %q: non-numeric uid %q", app, u.Uid)
	}
	return uint32(n), nil
}

// ResolveUIDs resolves every entry and returns the sorted, de-duplicated uids.
// All unresolvable entries are reported together.
func ResolveUIDs(apps []string) ([]uint32, error) {
	var (
		uids []uint32
		errs []error
	)
	for _, app := range apps {
		uid, err := ResolveUID(app)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		uids = append(uids, uid)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	slices.Sort(uids)
	return slices.Compact(uids), nil
}
