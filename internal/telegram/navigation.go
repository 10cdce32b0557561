package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxCallbackData is Telegram's limit on inline button payloads, in bytes.
const MaxCallbackData = 64

type Screen int

const (
	ScreenNoop Screen = iota
	ScreenCompanies
	ScreenProjects
	ScreenUnits
	ScreenUnitDetail
)

func (s Screen) String() string {
	switch s {
	case ScreenCompanies:
		return "companies"
	case ScreenProjects:
		return "projects"
	case ScreenUnits:
		return "units"
	case ScreenUnitDetail:
		return "unit"
	default:
		return "noop"
	}
}

// Route is a navigation target. The fields that matter depend on Screen:
// Projects needs CompanySlug, Units needs ProjectID (CompanySlug is kept
// for the way back), UnitDetail needs UnitID. Back marks routes reached
// through a back button.
type Route struct {
	Screen      Screen
	CompanySlug string
	ProjectID   uint
	UnitID      uint
	Back        bool
}

var ErrInvalidToken = errors.New("invalid callback token")

func CompaniesRoute() Route { return Route{Screen: ScreenCompanies, Back: true} }

func NoopRoute() Route { return Route{Screen: ScreenNoop} }

func ProjectsRoute(slug string) Route {
	return Route{Screen: ScreenProjects, CompanySlug: slug}
}

func UnitsRoute(projectID uint, slug string) Route {
	return Route{Screen: ScreenUnits, ProjectID: projectID, CompanySlug: slug}
}

func UnitRoute(unitID uint, slug string) Route {
	return Route{Screen: ScreenUnitDetail, UnitID: unitID, CompanySlug: slug}
}

// BackTo returns the back-button form of r.
func BackTo(r Route) Route {
	r.Back = true
	return r
}

// Parent is the screen a back button on r leads to. Without a company slug
// there is no project list to return to, so the company list is used.
func (r Route) Parent() Route {
	switch r.Screen {
	case ScreenProjects:
		return CompaniesRoute()
	case ScreenUnits:
		if r.CompanySlug == "" {
			return CompaniesRoute()
		}
		return BackTo(ProjectsRoute(r.CompanySlug))
	default:
		return CompaniesRoute()
	}
}

func usableSlug(slug string) bool {
	return slug != "" && !strings.Contains(slug, ":")
}

func id(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// Token encodes r as callback data. A slug that would push the token past
// MaxCallbackData is left out.
func (r Route) Token() string {
	token := r.token(r.CompanySlug)
	if len(token) > MaxCallbackData || (r.CompanySlug != "" && !usableSlug(r.CompanySlug)) {
		return r.withoutSlug().token("")
	}
	return token
}

// withoutSlug is r after its company slug has been dropped. A project list
// cannot be shown without one, so that degrades to the company list.
func (r Route) withoutSlug() Route {
	if r.Screen == ScreenProjects {
		return CompaniesRoute()
	}
	r.CompanySlug = ""
	return r
}

func (r Route) token(slug string) string {
	switch r.Screen {
	case ScreenCompanies:
		return "back:companies"
	case ScreenProjects:
		if r.Back {
			return "back:projects:" + slug
		}
		return "comp:" + slug
	case ScreenUnits:
		if r.Back {
			if slug == "" {
				return "back:units:" + id(r.ProjectID)
			}
			return "back:units:" + id(r.ProjectID) + ":" + slug
		}
		return "proj:" + slug + ":" + id(r.ProjectID)
	case ScreenUnitDetail:
		if slug == "" {
			return "unit:" + id(r.UnitID)
		}
		return "unit:" + id(r.UnitID) + ":" + slug
	default:
		return "noop"
	}
}

func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: bad id %q", ErrInvalidToken, s)
	}
	return uint(v), nil
}

// ParseRoute decodes callback data produced by Route.Token.
func ParseRoute(data string) (Route, error) {
	parts := strings.Split(data, ":")
	bad := fmt.Errorf("%w: %q", ErrInvalidToken, data)

	switch parts[0] {
	case "noop":
		if len(parts) != 1 {
			return Route{}, bad
		}
		return NoopRoute(), nil

	case "comp":
		if len(parts) != 2 || parts[1] == "" {
			return Route{}, bad
		}
		return ProjectsRoute(parts[1]), nil

	case "proj":
		if len(parts) != 3 {
			return Route{}, bad
		}
		pid, err := parseID(parts[2])
		if err != nil {
			return Route{}, err
		}
		return UnitsRoute(pid, parts[1]), nil

	case "unit":
		if len(parts) < 2 || len(parts) > 3 {
			return Route{}, bad
		}
		uid, err := parseID(parts[1])
		if err != nil {
			return Route{}, err
		}
		r := UnitRoute(uid, "")
		if len(parts) == 3 {
			r.CompanySlug = parts[2]
		}
		return r, nil

	case "back":
		return parseBack(parts, bad)
	}
	return Route{}, bad
}

func parseBack(parts []string, bad error) (Route, error) {
	if len(parts) < 2 {
		return Route{}, bad
	}
	switch parts[1] {
	case "companies":
		if len(parts) != 2 {
			return Route{}, bad
		}
		return CompaniesRoute(), nil

	case "projects":
		// A bare back:projects has lost its company and goes to the root.
		if len(parts) == 2 || parts[2] == "" {
			return CompaniesRoute(), nil
		}
		if len(parts) != 3 {
			return Route{}, bad
		}
		return BackTo(ProjectsRoute(parts[2])), nil

	case "units":
		if len(parts) < 3 || len(parts) > 4 {
			return Route{}, bad
		}
		pid, err := parseID(parts[2])
		if err != nil {
			return Route{}, err
		}
		slug := ""
		if len(parts) == 4 {
			slug = parts[3]
		}
		return BackTo(UnitsRoute(pid, slug)), nil
	}
	return Route{}, bad
}
