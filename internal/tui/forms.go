package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/JJCAR01/UX/internal/inventory"
)

// Units offered when creating a product.
var units = []string{inventory.DefaultUnit, "metros", "litros", "kilogramos", "cajas", "paquetes"}

// Categories offered even when no product uses them yet.
var defaultCategories = []string{"Electrónica", "Ferretería", "Limpieza", "Oficina"}

type loginValues struct {
	Email    string
	Password string
	Team     string
}

type productValues struct {
	Code        string
	Name        string
	Description string
	Category    string
	Quantity    string
	Unit        string
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validQuantity(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("quantity must be a whole number")
	}
	if n < 0 {
		return errors.New("quantity must not be negative")
	}
	return nil
}

// newLoginForm builds the login form, keeping the last email typed.
func (m *Model) newLoginForm() tea.Cmd {
	v := &loginValues{}
	if m.login != nil {
		v.Email = m.login.Email
	}
	if len(m.opts.Teams) > 0 {
		v.Team = m.opts.Teams[0]
	}
	m.login = v

	fields := []huh.Field{
		huh.NewInput().
			Title("Email").
			Placeholder("usuario@inventario.com").
			Value(&v.Email).
			Validate(notBlank("email")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&v.Password).
			Validate(notBlank("password")),
	}
	if len(m.opts.Teams) > 0 {
		fields = append(fields, huh.NewSelect[string]().
			Title("Team").
			Options(huh.NewOptions(m.opts.Teams...)...).
			Value(&v.Team))
	}

	m.loginForm = huh.NewForm(huh.NewGroup(fields...)).
		WithShowHelp(true).
		WithShowErrors(true)
	return m.loginForm.Init()
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Input waits while a login request is running
	if m.loading != "" {
		return m, nil
	}

	form, cmd := m.loginForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.loginForm = f
	}

	switch m.loginForm.State {
	case huh.StateCompleted:
		m.loading = "Signing in"
		return m, m.loginCmd(*m.login)
	case huh.StateAborted:
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(m.styles.HeaderTitle.Render("▣ Inventory Terminal"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render("Sign in to manage the inventory"))
	b.WriteString("\n\n")
	if m.loading != "" {
		b.WriteString(m.spinner.View() + " " + m.loading + "...")
	} else {
		b.WriteString(m.loginForm.View())
	}
	b.WriteString(m.viewNotice())
	return m.styles.Box.Render(b.String())
}

// categoryOptions lists the known categories followed by the defaults.
func categoryOptions(known []string) []string {
	options := slices.Clone(known)
	for _, c := range defaultCategories {
		if !slices.Contains(options, c) {
			options = append(options, c)
		}
	}
	return options
}

func (m *Model) newProductForm() tea.Cmd {
	cats := categoryOptions(m.snap.Categories)
	v := &productValues{
		Category: cats[0],
		Quantity: "0",
		Unit:     inventory.DefaultUnit,
	}
	m.product = v

	m.productForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Code").
				Placeholder("TORN-001").
				Value(&v.Code).
				Validate(notBlank("code")),
			huh.NewInput().
				Title("Name").
				Value(&v.Name).
				Validate(notBlank("name")),
			huh.NewText().
				Title("Description").
				Lines(3).
				Value(&v.Description),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(huh.NewOptions(cats...)...).
				Value(&v.Category),
			huh.NewInput().
				Title("Quantity").
				Value(&v.Quantity).
				Validate(validQuantity),
			huh.NewSelect[string]().
				Title("Unit").
				Options(huh.NewOptions(units...)...).
				Value(&v.Unit),
		),
	).WithShowHelp(true).WithShowErrors(true)
	return m.productForm.Init()
}

// newProduct converts the form values into a create request.
func (v productValues) newProduct() inventory.NewProduct {
	qty, _ := strconv.Atoi(strings.TrimSpace(v.Quantity))
	return inventory.NewProduct{
		Code:        strings.TrimSpace(v.Code),
		Name:        strings.TrimSpace(v.Name),
		Description: strings.TrimSpace(v.Description),
		Category:    v.Category,
		Quantity:    qty,
		Unit:        v.Unit,
	}
}

func (m Model) updateProductForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.productForm = nil
		return m, nil
	}

	form, cmd := m.productForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.productForm = f
	}

	switch m.productForm.State {
	case huh.StateCompleted:
		np := m.product.newProduct()
		m.productForm = nil
		m.loading = "Saving product"
		return m, m.createCmd(np)
	case huh.StateAborted:
		m.productForm = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) createCmd(np inventory.NewProduct) tea.Cmd {
	ctrl := m.ctrl
	return m.run(func(ctx context.Context) (string, error) {
		p, err := ctrl.CreateProduct(ctx, np)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Product %s created", p.Code), nil
	})
}

// askConfirm opens a yes/no dialog. onYes runs only when confirmed.
func (m *Model) askConfirm(title, description string, onYes func(*Model) tea.Cmd) tea.Cmd {
	yes := false
	m.confirmed = &yes
	m.onConfirm = onYes
	m.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(m.confirmed),
		),
	).WithShowHelp(true)
	return m.confirmForm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.confirmForm = nil
		m.onConfirm = nil
		return m, nil
	}

	form, cmd := m.confirmForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirmForm = f
	}

	switch m.confirmForm.State {
	case huh.StateCompleted:
		yes, onYes := *m.confirmed, m.onConfirm
		m.confirmForm = nil
		m.onConfirm = nil
		if yes && onYes != nil {
			cmd := onYes(&m)
			return m, cmd
		}
		return m, nil
	case huh.StateAborted:
		m.confirmForm = nil
		m.onConfirm = nil
		return m, nil
	}
	return m, cmd
}
