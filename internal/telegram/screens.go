package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Browser is the read side of the catalog used by the menus.
type Browser interface {
	Companies(ctx context.Context) ([]Company, error)
	Projects(ctx context.Context, companySlug string) ([]Project, error)
	Units(ctx context.Context, projectID uint) ([]Unit, error)
	Unit(ctx context.Context, id uint) (*Unit, error)
	FileURL(name string) string
}

// View is a rendered screen. When PhotoURL is set the screen is sent as a
// photo with Text as its caption.
type View struct {
	Text     string
	Keyboard tgbotapi.InlineKeyboardMarkup
	PhotoURL string
}

const (
	textCompanies = "🏢 Choose a company:"
	textProjects  = "📋 Choose a project:"
	textUnits     = "🏠 Choose a unit:"

	labelBack        = "⬅ Back"
	labelNoCompanies = "No companies available"
	labelNoProjects  = "No projects available"
	labelNoUnits     = "No units available"
)

type Navigator struct {
	catalog Browser
	logger  *logrus.Logger
	printer *message.Printer
}

func NewNavigator(catalog Browser, logger *logrus.Logger) *Navigator {
	return &Navigator{
		catalog: catalog,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

func button(label string, r Route) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, r.Token())
}

func keyboard(rows [][]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func errorRow(err error) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(button("❌ "+err.Error(), NoopRoute()))
}

// Render builds the screen for r.
func (n *Navigator) Render(ctx context.Context, r Route) View {
	switch r.Screen {
	case ScreenProjects:
		return n.projects(ctx, r)
	case ScreenUnits:
		return n.units(ctx, r)
	case ScreenUnitDetail:
		return n.unit(ctx, r)
	default:
		return n.companies(ctx)
	}
}

func (n *Navigator) companies(ctx context.Context) View {
	companies, err := n.catalog.Companies(ctx)
	if err != nil {
		n.logger.WithError(err).Error("Failed to fetch companies")
		return View{Text: textCompanies, Keyboard: keyboard([][]tgbotapi.InlineKeyboardButton{errorRow(err)})}
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(companies))
	for _, c := range companies {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(c.Name, ProjectsRoute(c.Slug))))
	}
	if len(rows) == 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(labelNoCompanies, NoopRoute())))
	}
	return View{Text: textCompanies, Keyboard: keyboard(rows)}
}

func (n *Navigator) projects(ctx context.Context, r Route) View {
	back := tgbotapi.NewInlineKeyboardRow(button(labelBack, r.Parent()))

	projects, err := n.catalog.Projects(ctx, r.CompanySlug)
	if err != nil {
		n.logger.WithError(err).WithField("company", r.CompanySlug).Error("Failed to fetch projects")
		return View{Text: textProjects, Keyboard: keyboard([][]tgbotapi.InlineKeyboardButton{errorRow(err), back})}
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(projects)+1)
	for _, p := range projects {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(p.Title, UnitsRoute(p.ID, r.CompanySlug))))
	}
	if len(rows) == 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(labelNoProjects, NoopRoute())))
	}
	rows = append(rows, back)
	return View{Text: textProjects, Keyboard: keyboard(rows)}
}

func (n *Navigator) units(ctx context.Context, r Route) View {
	back := tgbotapi.NewInlineKeyboardRow(button(labelBack, r.Parent()))

	units, err := n.catalog.Units(ctx, r.ProjectID)
	if err != nil {
		n.logger.WithError(err).WithField("project_id", r.ProjectID).Error("Failed to fetch units")
		return View{Text: textUnits, Keyboard: keyboard([][]tgbotapi.InlineKeyboardButton{errorRow(err), back})}
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(units)+1)
	for _, u := range units {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(n.unitLabel(u), UnitRoute(u.ID, r.CompanySlug))))
	}
	if len(rows) == 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(labelNoUnits, NoopRoute())))
	}
	rows = append(rows, back)
	return View{Text: textUnits, Keyboard: keyboard(rows)}
}

func (n *Navigator) unit(ctx context.Context, r Route) View {
	u, err := n.catalog.Unit(ctx, r.UnitID)
	if err != nil {
		n.logger.WithError(err).WithField("unit_id", r.UnitID).Error("Failed to fetch unit")
		back := tgbotapi.NewInlineKeyboardRow(button(labelBack, CompaniesRoute()))
		return View{
			Text:     "❌ Could not load unit details.",
			Keyboard: keyboard([][]tgbotapi.InlineKeyboardButton{errorRow(err), back}),
		}
	}

	back := BackTo(UnitsRoute(u.ProjectID, r.CompanySlug))
	view := View{
		Text:     n.UnitDetails(u),
		Keyboard: keyboard([][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(button(labelBack, back))}),
	}
	view.PhotoURL = n.photoURL(u)
	return view
}

// photoURL picks the first image. Telegram fetches it itself, so only an
// absolute URL will do.
func (n *Navigator) photoURL(u *Unit) string {
	if len(u.ImageURLs) > 0 && strings.HasPrefix(u.ImageURLs[0], "http") {
		return u.ImageURLs[0]
	}
	if len(u.Images) > 0 {
		return n.catalog.FileURL(u.Images[0])
	}
	return ""
}

func formatSqm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Money groups thousands, e.g. 1,250,000.
func (n *Navigator) Money(v int64) string {
	return n.printer.Sprintf("%d", v)
}

func (n *Navigator) unitLabel(u Unit) string {
	return fmt.Sprintf("%s | %s m² | %s", u.Code, formatSqm(u.Sqm), n.Money(u.TotalPrice))
}

// UnitDetails is the text of the unit detail screen.
func (n *Navigator) UnitDetails(u *Unit) string {
	title := u.Title
	if title == "" {
		title = "Residential unit"
	}
	floor := u.Floor
	if floor == "" {
		floor = "n/a"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏠 %s\n\n", title)
	fmt.Fprintf(&b, "🔢 Code: %s\n", u.Code)
	fmt.Fprintf(&b, "📏 Area: %s m²\n", formatSqm(u.Sqm))
	fmt.Fprintf(&b, "💰 Price per m²: %s\n", n.Money(u.PricePerSqm))
	fmt.Fprintf(&b, "💵 Total price: %s\n", n.Money(u.TotalPrice))
	fmt.Fprintf(&b, "🏢 Floor: %s\n", floor)
	fmt.Fprintf(&b, "🛏️ Bedrooms: %d\n", u.Bedrooms)
	fmt.Fprintf(&b, "🚿 Bathrooms: %d\n", u.Bathrooms)
	fmt.Fprintf(&b, "📊 Status: %s", u.Status)
	return b.String()
}
