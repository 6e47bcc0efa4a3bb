package apiclient

import "strings"

type Period struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"nombre" validate:"required"`
	SchoolID  int64  `json:"colegio_id" validate:"required"`
	StartDate string `json:"fecha_inicio,omitempty"`
	EndDate   string `json:"fecha_fin,omitempty"`
}

func (p Period) SearchFields() []string { return []string{p.Name} }

// Boleta is a report card of one student for one period.
type Boleta struct {
	ID          int64  `json:"id,omitempty"`
	StudentID   int64  `json:"alumno_id" validate:"required"`
	ClassroomID int64  `json:"salon_id" validate:"required"`
	PeriodID    int64  `json:"periodo_id" validate:"required"`
	SchoolID    int64  `json:"colegio_id" validate:"required"`
	StudentName string `json:"alumno_nombre,omitempty"`
	Status      string `json:"estado,omitempty"`
}

func (b Boleta) SearchFields() []string { return []string{b.StudentName, b.Status} }

// Card is an RFID badge assigned to a student.
type Card struct {
	ID          int64  `json:"id,omitempty"`
	Code        string `json:"codigo" validate:"required"`
	StudentID   int64  `json:"alumno_id" validate:"required"`
	SchoolID    int64  `json:"colegio_id" validate:"required"`
	StudentName string `json:"alumno_nombre,omitempty"`
}

func (c Card) SearchFields() []string { return []string{c.Code, c.StudentName} }

type Guardian struct {
	ID             int64  `json:"id,omitempty"`
	DocumentNumber string `json:"numero_documento" validate:"required"`
	FirstName      string `json:"nombres" validate:"required"`
	LastName       string `json:"apellidos" validate:"required"`
	Phone          string `json:"telefono,omitempty"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	SchoolID       int64  `json:"colegio_id" validate:"required"`
}

func (g Guardian) SearchFields() []string {
	return []string{g.DocumentNumber, g.FirstName, g.LastName, fullName(g.FirstName, g.LastName)}
}

type Worker struct {
	ID             int64  `json:"id,omitempty"`
	DocumentNumber string `json:"numero_documento" validate:"required"`
	FirstName      string `json:"nombres" validate:"required"`
	LastName       string `json:"apellidos" validate:"required"`
	Role           string `json:"rol" validate:"required"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	SchoolID       int64  `json:"colegio_id" validate:"required"`
}

func (w Worker) SearchFields() []string {
	return []string{w.DocumentNumber, w.FirstName, w.LastName, fullName(w.FirstName, w.LastName)}
}

type Classroom struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"nombre" validate:"required"`
	Grade    string `json:"grado,omitempty"`
	Section  string `json:"seccion,omitempty"`
	Level    string `json:"nivel,omitempty"`
	SchoolID int64  `json:"colegio_id" validate:"required"`
}

func (c Classroom) SearchFields() []string {
	return []string{c.Name, c.Grade, c.Section, c.Level}
}

type Student struct {
	ID             int64  `json:"id,omitempty"`
	DocumentNumber string `json:"numero_documento" validate:"required"`
	FirstName      string `json:"nombres" validate:"required"`
	LastName       string `json:"apellidos" validate:"required"`
	ClassroomID    int64  `json:"salon_id,omitempty"`
	SchoolID       int64  `json:"colegio_id" validate:"required"`
}

func (s Student) SearchFields() []string {
	return []string{s.DocumentNumber, s.FirstName, s.LastName, fullName(s.FirstName, s.LastName)}
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
