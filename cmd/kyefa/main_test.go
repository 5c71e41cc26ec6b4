package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/kyefa/internal/db"
	"github.com/Spok95/kyefa/internal/models"
	"github.com/Spok95/kyefa/internal/testutil/fakebackend"
)

func setupEnv(t *testing.T) *fakebackend.Server {
	t.Helper()
	srv := fakebackend.New()
	t.Cleanup(srv.Close)
	t.Setenv("KYEFA_API_URL", srv.URL)
	t.Setenv("KYEFA_CACHE_PATH", "off")
	t.Setenv("KYEFA_USER", "admin")
	t.Setenv("KYEFA_PASSWORD", "secret")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SENTRY_DSN", "")
	return srv
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStudents_AddEditListDelete(t *testing.T) {
	srv := setupEnv(t)

	out, err := run(t, "", "students", "add", "--first", "John", "--surname", "Doe",
		"--gender", "Male", "--class", "IGCSE1")
	require.NoError(t, err)
	assert.Contains(t, out, "Student created successfully.")
	require.Len(t, srv.Students(), 1)
	id := srv.Students()[0].ID.String()

	out, err = run(t, "", "students", "edit", id, "--class", "IGCSE2", "--other", "Kwame")
	require.NoError(t, err)
	assert.Contains(t, out, "Student updated successfully.")
	assert.Equal(t, models.IGCSE2, srv.Students()[0].ClassLevel)
	assert.Equal(t, "John", srv.Students()[0].Name.FirstName, "незаданные поля не меняются")

	out, err = run(t, "", "students", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "John Kwame Doe")
	assert.Contains(t, out, "1 student(s)")

	out, err = run(t, "", "students", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Student deleted.")
	assert.Empty(t, srv.Students())
}

func TestStudents_ValidationNeverReachesBackend(t *testing.T) {
	srv := setupEnv(t)

	_, err := run(t, "", "students", "add", "--first", "John", "--surname", "Doe", "--class", "IGCSE1")
	require.EqualError(t, err, "Please select a gender.")
	assert.NotContains(t, srv.Hits(), "POST /students")
}

func TestStudents_EditUnknownID(t *testing.T) {
	setupEnv(t)
	id := uuid.NewString()
	_, err := run(t, "", "students", "edit", id, "--class", "IGCSE2")
	require.EqualError(t, err, "student "+id+" not found")
}

func TestLogin_Rejected(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "", "students", "list", "--password", "wrong")
	require.EqualError(t, err, "Incorrect username or password.")

	_, err = run(t, "", "students", "list", "--user", "ghost")
	require.EqualError(t, err, "User with that username does not exist.")
}

func TestTemplateThenImport(t *testing.T) {
	srv := setupEnv(t)
	dir := t.TempDir()

	out, err := run(t, "", "template", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "kyefa_students_template.xlsx")
	assert.Contains(t, out, path)
	require.FileExists(t, path)

	out, err = run(t, "n\n", "import", path)
	require.ErrorIs(t, err, errImportCancelled)
	assert.Contains(t, out, "First Name")
	assert.Contains(t, out, "Upload 1 student(s)?")
	assert.Empty(t, srv.Students())

	out, err = run(t, "", "import", "--yes", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 students.")
	assert.Contains(t, out, "Roster now has 1 student(s).")
	require.Len(t, srv.Students(), 1)
	assert.Equal(t, "Doe", srv.Students()[0].Name.Surname)
}

func TestImport_RejectsBadFile(t *testing.T) {
	srv := setupEnv(t)
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o600))

	_, err := run(t, "", "import", "--yes", path)
	require.Error(t, err)
	assert.NotContains(t, srv.Hits(), "POST /students/import")
}

func TestReport_ExportPDF(t *testing.T) {
	srv := setupEnv(t)
	st := models.Student{ID: uuid.New(), Name: models.PersonName{FirstName: "Ama", Surname: "Owusu"},
		Gender: models.Female, ClassLevel: models.IGCSE1, IsActive: true, FeeAmount: 200, PaymentStatus: models.Partial}
	srv.SeedStudents(st)
	srv.SeedPayments(models.Payment{StudentID: st.ID.String(), Amount: 50, Method: "Cash",
		DatePaid: models.NewDate(2025, 2, 1)})

	out := filepath.Join(t.TempDir(), "collection.pdf")
	stdout, err := run(t, "", "report", "--type", "collection_status", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Collection rate:  25.0%")
	assert.Contains(t, stdout, "Report saved to "+out)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))

	srv.SeedPeriods(models.TeachingPeriod{ID: "p1", Subject: "Maths", Class: "IGCSE1", TeacherName: "Mr. Kobi",
		Rate: 40, Date: models.NewDate(2025, 2, 3), StartTime: 8, EndTime: 10})
	xlsx := filepath.Join(t.TempDir(), "earnings.xlsx")
	_, err = run(t, "", "report", "--type", "teacher_earnings", "--out", xlsx)
	require.NoError(t, err)
	assert.FileExists(t, xlsx)

	_, err = run(t, "", "report", "--from", "31/02/2025")
	require.EqualError(t, err, "Start date must be in DD/MM/YYYY format.")
	_, err = run(t, "", "report", "--type", "weekly")
	require.EqualError(t, err, `unknown report type "weekly"`)
}

func TestRosterCacheWritten(t *testing.T) {
	srv := setupEnv(t)
	cachePath := filepath.Join(t.TempDir(), "roster.db")
	t.Setenv("KYEFA_CACHE_PATH", cachePath)
	srv.SeedStudents(models.Student{ID: uuid.New(), Name: models.PersonName{FirstName: "Esi", Surname: "Adjei"},
		Gender: models.Female, ClassLevel: models.IGCSE2, IsActive: true, PaymentStatus: models.NotPaid})

	_, err := run(t, "", "students", "list")
	require.NoError(t, err)

	c, err := db.Open(context.Background(), cachePath)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	got, err := c.LoadRoster(context.Background(), "admin")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Adjei", got[0].Name.Surname)
}
