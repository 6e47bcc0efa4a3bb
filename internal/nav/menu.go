package nav

import "github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"

type Item struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var adminMenu = []Item{
	{Path: "/admin/dashboard", Label: "Inicio", Icon: "dashboard"},
	{Path: "/admin/trabajadores", Label: "Trabajadores", Icon: "badge"},
	{Path: "/admin/apoderados", Label: "Apoderados", Icon: "family_restroom"},
	{Path: "/admin/alumnos", Label: "Alumnos", Icon: "school"},
	{Path: "/admin/salones", Label: "Salones", Icon: "meeting_room"},
	{Path: "/admin/periodos", Label: "Periodos", Icon: "date_range"},
	{Path: "/admin/boletas", Label: "Boletas", Icon: "description"},
	{Path: "/admin/tarjetas", Label: "Tarjetas", Icon: "contactless"},
}

var workerMenu = []Item{
	{Path: "/trabajador/dashboard", Label: "Inicio", Icon: "dashboard"},
	{Path: "/trabajador/alumnos", Label: "Alumnos", Icon: "school"},
	{Path: "/trabajador/asistencia", Label: "Asistencia", Icon: "fact_check"},
	{Path: "/trabajador/boletas", Label: "Boletas", Icon: "description"},
}

func AdminMenu() []Item { return append([]Item(nil), adminMenu...) }

func WorkerMenu() []Item { return append([]Item(nil), workerMenu...) }

// ForRole picks the menu by exact match on "admin"; any other non-empty
// role gets the worker menu. No role, no menu.
func ForRole(role string) []Item {
	switch role {
	case "":
		return nil
	case session.RoleAdmin:
		return AdminMenu()
	default:
		return WorkerMenu()
	}
}

// Home is the landing path for a role.
func Home(role string) string {
	items := ForRole(role)
	if len(items) == 0 {
		return LoginPath
	}
	return items[0].Path
}
