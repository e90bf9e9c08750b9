package service

import (
	"fmt"
	"testing"

	"mentorship_backend/internal/model"
	"mentorship_backend/internal/repository"
	"mentorship_backend/internal/testutil"
	"mentorship_backend/internal/util"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db *gorm.DB

	userRepo       *repository.UserRepository
	curriculumRepo *repository.CurriculumRepository
	enrollmentRepo *repository.EnrollmentRepository
	assignmentRepo *repository.TaskAssignmentRepository
	submissionRepo *repository.SubmissionRepository

	progress   *ProgressService
	sync       *SyncService
	enrollment *EnrollmentService
	submission *SubmissionService
	curriculum *CurriculumService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	e := &testEnv{
		db:             db,
		userRepo:       repository.NewUserRepository(db),
		curriculumRepo: repository.NewCurriculumRepository(db, nil),
		enrollmentRepo: repository.NewEnrollmentRepository(db),
		assignmentRepo: repository.NewTaskAssignmentRepository(db),
		submissionRepo: repository.NewSubmissionRepository(db),
	}

	e.progress = NewProgressService(e.enrollmentRepo, e.assignmentRepo)
	e.sync = NewSyncService(e.curriculumRepo, e.enrollmentRepo, e.assignmentRepo, e.progress, db)
	e.enrollment = NewEnrollmentService(e.curriculumRepo, e.enrollmentRepo, e.assignmentRepo, e.progress, db)
	e.submission = NewSubmissionService(e.assignmentRepo, e.submissionRepo, e.progress, db)
	e.curriculum = NewCurriculumService(e.curriculumRepo, e.enrollmentRepo, e.sync)

	return e
}

func (e *testEnv) createUser(t *testing.T, name string, role model.UserRole, domain model.DomainRole) *model.User {
	t.Helper()
	user := &model.User{
		Name:       name,
		Email:      name + "@example.com",
		Password:   "hashed",
		Role:       role,
		DomainRole: domain,
	}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *testEnv) createBuddy(t *testing.T, name string, domain model.DomainRole, mentorID uint) *model.User {
	t.Helper()
	buddy := e.createUser(t, name, model.Buddy, domain)
	if mentorID != 0 {
		buddy.AssignedMentorID = mentorID
		require.NoError(t, e.userRepo.Update(buddy))
	}
	return buddy
}

// seedCurriculum 直接落一棵已发布的课程树：weeks 周，每周 tasksPerWeek 个模板
func (e *testEnv) seedCurriculum(t *testing.T, domain model.DomainRole, weeks, tasksPerWeek int) *model.Curriculum {
	t.Helper()
	curriculum := &model.Curriculum{
		Title:      fmt.Sprintf("%s onboarding", domain),
		DomainRole: domain,
		TotalWeeks: weeks,
		Status:     model.CurriculumPublished,
		IsActive:   true,
	}
	require.NoError(t, e.curriculumRepo.Create(curriculum))

	for w := 1; w <= weeks; w++ {
		week := &model.CurriculumWeek{
			CurriculumID: curriculum.ID,
			WeekNumber:   w,
			Title:        fmt.Sprintf("Week %d", w),
			DisplayOrder: w,
		}
		require.NoError(t, e.curriculumRepo.CreateWeek(week))

		for i := 1; i <= tasksPerWeek; i++ {
			template := &model.TaskTemplate{
				WeekID: week.ID,
				Title:  fmt.Sprintf("Week %d task %d", w, i),
			}
			require.NoError(t, e.curriculumRepo.CreateTemplate(template))
		}
	}
	return curriculum
}

func claimsFor(user *model.User) *util.Claims {
	claims := &util.Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
	}
	switch user.Role {
	case model.Buddy:
		claims.BuddyID = user.ID
	case model.Mentor:
		claims.MentorID = user.ID
	}
	return claims
}

// submitFor 走完 start+submit，返回新提交
func (e *testEnv) submitFor(t *testing.T, buddy *model.User, assignmentID uint) *model.Submission {
	t.Helper()
	claims := claimsFor(buddy)
	_, err := e.submission.Start(assignmentID, claims)
	require.NoError(t, err)

	submission, err := e.submission.Submit(assignmentID, claims, &SubmitInput{
		Title:       "solution",
		Description: "done, see attached repo",
		Resources: []model.SubmissionResource{
			{URL: "https://git.example.com/solution", ResourceType: "repo"},
		},
	})
	require.NoError(t, err)
	return submission
}
