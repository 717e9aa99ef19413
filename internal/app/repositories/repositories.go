package repositories

import "github.com/tutorlog/sessionlog/internal/db"

// Repositories holds all the repository instances
type Repositories struct {
	CustomerRepository *CustomerRepository
	StudentRepository  *StudentRepository
	SessionRepository  *SessionRepository
}

// NewRepositories initializes all repositories
func NewRepositories(conn db.DBTX) *Repositories {
	return &Repositories{
		CustomerRepository: NewCustomerRepository(conn),
		StudentRepository:  NewStudentRepository(conn),
		SessionRepository:  NewSessionRepository(conn),
	}
}
