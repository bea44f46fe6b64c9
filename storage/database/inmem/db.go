package inmemdb

import (
	"strconv"
	"sync"

	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
	"github.com/mzhou3299/2-web-app-spogs/core/user"
)

type (
	// DB is a process-local store with the same semantics as the document store.
	DB struct {
		user       *userTable
		assignment *assignmentTable
	}

	userTable struct {
		sync.RWMutex
		pkCount int
		table   map[string]*user.User
	}

	assignmentTable struct {
		sync.RWMutex
		pkCount int
		table   map[string]*assignment.Assignment
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		assignment: &assignmentTable{table: make(map[string]*assignment.Assignment)},
	}
}

func nextID(count *int) string {
	*count++
	return strconv.Itoa(*count)
}
