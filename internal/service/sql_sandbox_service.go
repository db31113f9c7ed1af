package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SQLSandboxService manages per-test sandbox tables and runs candidate
// queries against them. Each test gets its own st<id>_ prefixed copies so
// problems can reference stable table names without tests interfering.
type SQLSandboxService interface {
	TableNamesFor(testID uint) map[string]string
	EnsureTables(testID uint) error
	DropTables(testID uint) error
	// RunQuery executes a read-only query restricted to the test's sandbox
	// tables. Query failures are reported in the result, not as an error.
	RunQuery(testID uint, query string) (columns []string, rows []map[string]any, runErr error)
}

type sqlSandboxService struct {
	db *gorm.DB
}

func NewSQLSandboxService(db *gorm.DB) SQLSandboxService {
	return &sqlSandboxService{db: db}
}

func sandboxTablesFor(testID uint) sandboxTables {
	return sandboxTables{
		Employees:   fmt.Sprintf("st%d_employees", testID),
		Departments: fmt.Sprintf("st%d_departments", testID),
		Projects:    fmt.Sprintf("st%d_projects", testID),
		Orders:      fmt.Sprintf("st%d_orders", testID),
	}
}

func (s *sqlSandboxService) TableNamesFor(testID uint) map[string]string {
	t := sandboxTablesFor(testID)
	return map[string]string{
		"employees":   t.Employees,
		"departments": t.Departments,
		"projects":    t.Projects,
		"orders":      t.Orders,
	}
}

func (s *sqlSandboxService) EnsureTables(testID uint) error {
	t := sandboxTablesFor(testID)

	ddl := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INT PRIMARY KEY, name VARCHAR(100), department VARCHAR(100),
			salary DECIMAL(10,2), hire_date DATE, manager_id INT
		)`, t.Employees),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INT PRIMARY KEY, name VARCHAR(100), budget DECIMAL(12,2), location VARCHAR(100)
		)`, t.Departments),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INT PRIMARY KEY, name VARCHAR(100), department_id INT,
			start_date DATE, end_date DATE, status VARCHAR(50)
		)`, t.Projects),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INT PRIMARY KEY, customer_name VARCHAR(100), product VARCHAR(100),
			quantity INT, price DECIMAL(10,2), order_date DATE
		)`, t.Orders),
	}
	for _, stmt := range ddl {
		if err := s.db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	var count int64
	if err := s.db.Table(t.Employees).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []string{
		fmt.Sprintf(`INSERT INTO %s VALUES
			(1,'Engineering',500000,'New York'),(2,'Marketing',300000,'San Francisco'),
			(3,'Sales',350000,'Chicago'),(4,'HR',200000,'New York'),(5,'Finance',400000,'Boston')`, t.Departments),
		fmt.Sprintf(`INSERT INTO %s VALUES
			(1,'Alice Johnson','Engineering',95000,'2020-03-15',NULL),
			(2,'Bob Smith','Engineering',88000,'2021-07-01',1),
			(3,'Carol Williams','Marketing',72000,'2019-11-20',NULL),
			(4,'David Brown','Marketing',68000,'2022-01-10',3),
			(5,'Eve Davis','Sales',76000,'2020-06-25',NULL),
			(6,'Frank Miller','Sales',71000,'2021-09-14',5),
			(7,'Grace Wilson','HR',65000,'2018-04-03',NULL),
			(8,'Henry Taylor','HR',62000,'2023-02-18',7),
			(9,'Ivy Anderson','Finance',90000,'2019-08-12',NULL),
			(10,'Jack Thomas','Finance',85000,'2020-12-01',9),
			(11,'Karen Martinez','Engineering',92000,'2021-03-22',1),
			(12,'Leo Garcia','Engineering',78000,'2023-06-15',1),
			(13,'Mia Robinson','Sales',74000,'2022-04-10',5),
			(14,'Noah Clark','Marketing',70000,'2023-09-01',3),
			(15,'Olivia Lewis','Finance',88000,'2021-11-05',9)`, t.Employees),
		fmt.Sprintf(`INSERT INTO %s VALUES
			(1,'Website Redesign',1,'2024-01-15','2024-06-30','completed'),
			(2,'Mobile App',1,'2024-03-01','2024-12-31','in_progress'),
			(3,'Q1 Campaign',2,'2024-01-01','2024-03-31','completed'),
			(4,'Brand Refresh',2,'2024-06-01','2024-09-30','in_progress'),
			(5,'Sales Portal',3,'2024-02-15','2024-08-15','completed'),
			(6,'CRM Integration',3,'2024-07-01','2025-01-31','in_progress'),
			(7,'Employee Portal',4,'2024-04-01','2024-10-31','completed'),
			(8,'Budget System',5,'2024-05-01',NULL,'planned')`, t.Projects),
		fmt.Sprintf(`INSERT INTO %s VALUES
			(1,'John Doe','Laptop',2,1200,'2024-01-15'),
			(2,'Jane Smith','Keyboard',5,75,'2024-01-20'),
			(3,'Bob Johnson','Monitor',3,450,'2024-02-10'),
			(4,'Alice Brown','Mouse',10,25,'2024-02-14'),
			(5,'Charlie Wilson','Laptop',1,1200,'2024-03-01'),
			(6,'Diana Taylor','Headphones',4,150,'2024-03-15'),
			(7,'John Doe','Monitor',1,450,'2024-04-02'),
			(8,'Jane Smith','Laptop',1,1200,'2024-04-18'),
			(9,'Eve Martinez','Keyboard',3,75,'2024-05-05'),
			(10,'Frank Garcia','Mouse',8,25,'2024-05-20'),
			(11,'Grace Lee','Laptop',2,1200,'2024-06-10'),
			(12,'Bob Johnson','Headphones',2,150,'2024-06-25'),
			(13,'Alice Brown','Monitor',1,450,'2024-07-08'),
			(14,'Charlie Wilson','Keyboard',6,75,'2024-07-22'),
			(15,'Diana Taylor','Laptop',1,1200,'2024-08-05')`, t.Orders),
	}
	for _, stmt := range seed {
		if err := s.db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	log.Info().Uint("testID", testID).Msg("SQL sandbox tables created")
	return nil
}

func (s *sqlSandboxService) DropTables(testID uint) error {
	t := sandboxTablesFor(testID)
	for _, name := range []string{t.Employees, t.Departments, t.Projects, t.Orders} {
		if err := s.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", name)).Error; err != nil {
			return err
		}
	}
	log.Info().Uint("testID", testID).Msg("SQL sandbox tables dropped")
	return nil
}

var tableRefPattern = regexp.MustCompile(`(?i)(?:from|join)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

const maxSandboxRows = 100

func (s *sqlSandboxService) RunQuery(testID uint, query string) ([]string, []map[string]any, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil, fmt.Errorf("empty query")
	}
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return nil, nil, fmt.Errorf("only SELECT queries are allowed in this test environment")
	}

	allowed := map[string]bool{}
	var allowedNames []string
	for _, name := range s.TableNamesFor(testID) {
		allowed[name] = true
		allowedNames = append(allowedNames, name)
	}

	var blocked []string
	for _, m := range tableRefPattern.FindAllStringSubmatch(query, -1) {
		ref := strings.ToLower(m[1])
		if !allowed[ref] {
			blocked = append(blocked, ref)
		}
	}
	if len(blocked) > 0 {
		return nil, nil, fmt.Errorf("access denied. You can only query: %s. Blocked: %s",
			strings.Join(allowedNames, ", "), strings.Join(blocked, ", "))
	}

	dbRows, err := s.db.Raw(query).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer dbRows.Close()

	columns, err := dbRows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var rows []map[string]any
	for dbRows.Next() && len(rows) < maxSandboxRows {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := dbRows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}
