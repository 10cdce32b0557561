package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	usageAddUnit       = "Usage: /add_unit <project_id> <code> <sqm> <price_per_sqm> <floor>"
	usageDeleteUnit    = "Usage: /delete_unit <unit_id>"
	usageCreateProject = "Usage: /create_project <company_slug> <slug> <title>"

	msgAdminsOnly   = "❌ Admins only."
	msgLoginFirst   = "⚠️ Run /adminlogin first."
	msgUnknown      = "Unknown command. Use /start to browse the catalog."
	msgLoginExpired = "⚠️ Your admin session has expired. Run /adminlogin again."
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	b.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"command": msg.Command(),
	}).Info("Handling command")

	switch msg.Command() {
	case "start":
		b.sendView(chatID, b.nav.Render(ctx, CompaniesRoute()))
	case "myid":
		b.myID(chatID)
	case "adminlogin":
		b.adminLogin(ctx, chatID)
	case "add_unit":
		b.addUnit(ctx, chatID, args)
	case "delete_unit":
		b.deleteUnit(ctx, chatID, args)
	case "list_projects":
		b.listProjects(ctx, chatID)
	case "create_project":
		b.createProject(ctx, chatID, args)
	case "refresh":
		b.refresh(chatID)
	default:
		b.reply(chatID, msgUnknown)
	}
}

func (b *Bot) myID(chatID int64) {
	status := "❌ regular user"
	if b.admins.Contains(chatID) {
		status = "✅ admin"
	}
	b.reply(chatID, fmt.Sprintf(
		"🆔 Your chat ID: %d\n👤 Admin status: %s\n\n🔧 To grant admin access, add this ID to ADMIN_CHAT_IDS in config_bot.json",
		chatID, status,
	))
}

func (b *Bot) adminLogin(ctx context.Context, chatID int64) {
	if !b.admins.Contains(chatID) {
		b.reply(chatID, "❌ You are not allowed to log in as admin.")
		return
	}
	if b.adminUser == "" || b.adminPass == "" {
		b.reply(chatID, "❌ Admin credentials are missing from config_bot.json.")
		return
	}

	token, err := b.catalog.Login(ctx, b.adminUser, b.adminPass)
	if err != nil {
		b.reply(chatID, "Admin login failed: "+err.Error())
		return
	}
	b.tokens.Put(chatID, token)
	b.reply(chatID, "✅ Logged in as admin for this chat.")
}

// adminToken checks the allow-list and the cached token, replying with the
// reason when either is missing.
func (b *Bot) adminToken(chatID int64) (string, bool) {
	if !b.admins.Contains(chatID) {
		b.reply(chatID, msgAdminsOnly)
		return "", false
	}
	token, ok := b.tokens.Get(chatID)
	if !ok {
		b.reply(chatID, msgLoginFirst)
		return "", false
	}
	return token, true
}

// failed relays an API error. A rejected token is dropped from the cache.
func (b *Bot) failed(chatID int64, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		b.tokens.Delete(chatID)
		b.reply(chatID, msgLoginExpired)
		return
	}
	b.reply(chatID, "❌ Failed: "+err.Error())
}

func parseUnitArgs(args []string) (NewUnit, bool) {
	if len(args) < 5 {
		return NewUnit{}, false
	}
	projectID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || projectID == 0 {
		return NewUnit{}, false
	}
	sqm, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return NewUnit{}, false
	}
	price, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		return NewUnit{}, false
	}
	return NewUnit{
		ProjectID:   uint(projectID),
		Code:        args[1],
		Sqm:         sqm,
		PricePerSqm: price,
		Floor:       args[4],
	}, true
}

func (b *Bot) addUnit(ctx context.Context, chatID int64, args []string) {
	token, ok := b.adminToken(chatID)
	if !ok {
		return
	}
	req, ok := parseUnitArgs(args)
	if !ok {
		b.reply(chatID, usageAddUnit)
		return
	}

	unit, err := b.catalog.CreateUnit(ctx, token, req)
	if err != nil {
		b.failed(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Unit added: %s (ID=%d)", unit.Code, unit.ID))
}

func (b *Bot) deleteUnit(ctx context.Context, chatID int64, args []string) {
	token, ok := b.adminToken(chatID)
	if !ok {
		return
	}
	if len(args) != 1 {
		b.reply(chatID, usageDeleteUnit)
		return
	}
	unitID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || unitID == 0 {
		b.reply(chatID, usageDeleteUnit)
		return
	}

	if err := b.catalog.DeleteUnit(ctx, token, uint(unitID)); err != nil {
		b.failed(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Unit %d deleted", unitID))
}

func (b *Bot) listProjects(ctx context.Context, chatID int64) {
	if _, ok := b.adminToken(chatID); !ok {
		return
	}

	projects, err := b.catalog.Projects(ctx, "")
	if err != nil {
		b.reply(chatID, "❌ Could not fetch projects: "+err.Error())
		return
	}
	if len(projects) == 0 {
		b.reply(chatID, "No projects yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Projects:\n\n")
	for _, p := range projects {
		location := p.Location
		if location == "" {
			location = "no location"
		}
		fmt.Fprintf(&sb, "🏢 %s (ID: %d)\n", p.Title, p.ID)
		fmt.Fprintf(&sb, "📍 %s\n", location)
		fmt.Fprintf(&sb, "🔗 Slug: %s\n", p.Slug)
		sb.WriteString(strings.Repeat("─", 30) + "\n")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) createProject(ctx context.Context, chatID int64, args []string) {
	token, ok := b.adminToken(chatID)
	if !ok {
		return
	}
	if len(args) < 3 {
		b.reply(chatID, usageCreateProject)
		return
	}

	req := NewProject{
		CompanySlug: args[0],
		Slug:        args[1],
		Title:       strings.Join(args[2:], " "),
	}
	project, err := b.catalog.CreateProject(ctx, token, req)
	if err != nil {
		b.failed(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Project created: %s (ID=%d)", project.Title, project.ID))
}

func (b *Bot) refresh(chatID int64) {
	if b.reload == nil {
		b.reply(chatID, "✅ Nothing to reload.")
		return
	}
	ids, err := b.reload()
	if err != nil {
		b.logger.WithError(err).Error("Failed to reload admin chat ids")
		b.reply(chatID, "❌ Could not reload settings: "+err.Error())
		return
	}
	b.admins.Replace(ids)
	b.logger.WithField("admins", b.admins.Len()).Info("Reloaded admin chat ids")
	b.reply(chatID, "✅ Settings reloaded.")
}
