package service

import (
	"testing"

	"mentorship_backend/internal/model"
	"mentorship_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// enrollOneTask 单周单任务的最小跟踪树，返回学员和任务分配
func enrollOneTask(t *testing.T, e *testEnv) (*model.User, *model.TaskAssignment) {
	t.Helper()
	e.seedCurriculum(t, model.DomainBackend, 1, 1)
	buddy := e.createBuddy(t, "sub-buddy-"+t.Name(), model.DomainBackend, 0)

	result, err := e.enrollment.AutoEnroll(buddy.ID, model.DomainBackend)
	require.NoError(t, err)

	assignments, err := e.assignmentRepo.FindByEnrollment(result.Enrollment.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	return buddy, &assignments[0]
}

func TestStartIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)

	first, err := e.submission.Start(assignment.ID, claimsFor(buddy))
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentInProgress, first.Status)
	require.NotNil(t, first.StartedAt)
	startedAt := *first.StartedAt

	second, err := e.submission.Start(assignment.ID, claimsFor(buddy))
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentInProgress, second.Status)
	assert.Equal(t, startedAt.Unix(), second.StartedAt.Unix())
}

func TestStartForbiddenForOtherBuddy(t *testing.T) {
	e := newTestEnv(t)
	_, assignment := enrollOneTask(t, e)
	other := e.createBuddy(t, "intruder", model.DomainBackend, 0)

	_, err := e.submission.Start(assignment.ID, claimsFor(other))
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestSubmitVersioning(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)
	mentor := e.createUser(t, "version-mentor", model.Mentor, "")

	first := e.submitFor(t, buddy, assignment.ID)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, model.ReviewPending, first.ReviewStatus)
	assert.NotEmpty(t, first.Reference)

	reloaded, err := e.assignmentRepo.FindByID(assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentSubmitted, reloaded.Status)
	assert.Equal(t, 1, reloaded.SubmissionCount)
	require.NotNil(t, reloaded.FirstSubmissionAt)
	firstSubmissionAt := *reloaded.FirstSubmissionAt

	// 打回后再提交 -> 版本 2，firstSubmissionAt 不变
	_, err = e.submission.RequestRevision(first.ID, claimsFor(mentor), "需要补充测试")
	require.NoError(t, err)

	second, err := e.submission.Submit(assignment.ID, claimsFor(buddy), &SubmitInput{
		Title:       "solution v2",
		Description: "added tests",
		Resources:   []model.SubmissionResource{{URL: "https://git.example.com/v2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	reloaded, err = e.assignmentRepo.FindByID(assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.SubmissionCount)
	assert.Equal(t, firstSubmissionAt.Unix(), reloaded.FirstSubmissionAt.Unix())
}

func TestSubmitGuards(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)
	other := e.createBuddy(t, "not-owner", model.DomainBackend, 0)

	// 描述为空
	_, err := e.submission.Submit(assignment.ID, claimsFor(buddy), &SubmitInput{
		Title:       "x",
		Description: "   ",
		Resources:   []model.SubmissionResource{{URL: "https://example.com"}},
	})
	assert.ErrorIs(t, err, util.ErrInvalidState)

	// 没有资源
	_, err = e.submission.Submit(assignment.ID, claimsFor(buddy), &SubmitInput{
		Title:       "x",
		Description: "real work",
	})
	assert.ErrorIs(t, err, util.ErrInvalidState)

	// 非本人
	_, err = e.submission.Submit(assignment.ID, claimsFor(other), &SubmitInput{
		Title:       "x",
		Description: "real work",
		Resources:   []model.SubmissionResource{{URL: "https://example.com"}},
	})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestSubmissionResourcesKeepOrder(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)
	claims := claimsFor(buddy)

	submission, err := e.submission.Submit(assignment.ID, claims, &SubmitInput{
		Title:       "ordered",
		Description: "three artifacts",
		Resources: []model.SubmissionResource{
			{URL: "https://example.com/a"},
			{URL: "https://example.com/b"},
			{URL: "https://example.com/c"},
		},
	})
	require.NoError(t, err)

	loaded, err := e.submissionRepo.FindByID(submission.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Resources, 3)
	assert.Equal(t, "https://example.com/a", loaded.Resources[0].URL)
	assert.Equal(t, "https://example.com/b", loaded.Resources[1].URL)
	assert.Equal(t, "https://example.com/c", loaded.Resources[2].URL)
}

func TestUpdateAndDeleteOnlyWhilePending(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)
	mentor := e.createUser(t, "pending-mentor", model.Mentor, "")

	submission := e.submitFor(t, buddy, assignment.ID)

	title := "edited"
	updated, err := e.submission.UpdateSubmission(submission.ID, claimsFor(buddy), &SubmissionPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Title)

	// 评审有结论后不可再改或删
	_, err = e.submission.Approve(submission.ID, claimsFor(mentor), "A")
	require.NoError(t, err)

	_, err = e.submission.UpdateSubmission(submission.ID, claimsFor(buddy), &SubmissionPatch{Title: &title})
	assert.ErrorIs(t, err, util.ErrInvalidState)

	err = e.submission.DeleteSubmission(submission.ID, claimsFor(buddy))
	assert.ErrorIs(t, err, util.ErrInvalidState)
}

func TestDeleteLastSubmissionRevertsAssignment(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)

	submission := e.submitFor(t, buddy, assignment.ID)
	require.NoError(t, e.submission.DeleteSubmission(submission.ID, claimsFor(buddy)))

	reloaded, err := e.assignmentRepo.FindByID(assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentInProgress, reloaded.Status)
	assert.Equal(t, 0, reloaded.SubmissionCount)
	assert.Nil(t, reloaded.FirstSubmissionAt)

	// 删掉后同版本可以重新提交
	again := e.submitFor(t, buddy, assignment.ID)
	assert.Equal(t, 1, again.Version)
}

func TestApproveCompletesAssignmentAndCascades(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)
	mentor := e.createUser(t, "approve-mentor", model.Mentor, "")

	submission := e.submitFor(t, buddy, assignment.ID)

	approved, err := e.submission.Approve(submission.ID, claimsFor(mentor), "A+")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewApproved, approved.ReviewStatus)
	assert.Equal(t, "A+", approved.Grade)
	assert.Equal(t, mentor.ID, approved.ReviewedByID)
	assert.NotNil(t, approved.ReviewedAt)

	reloaded, err := e.assignmentRepo.FindByID(assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentCompleted, reloaded.Status)
	assert.NotNil(t, reloaded.CompletedAt)

	// 进度级联到周和课程
	enrollment, err := e.enrollmentRepo.FindByID(assignment.BuddyCurriculumID)
	require.NoError(t, err)
	assert.Equal(t, 100, enrollment.OverallProgress)
	assert.Equal(t, model.EnrollmentCompleted, enrollment.Status)

	// approval 反馈自动落一条
	feedback, err := e.submissionRepo.FindFeedbackBySubmission(submission.ID)
	require.NoError(t, err)
	require.Len(t, feedback, 1)
	assert.Equal(t, model.FeedbackApproval, feedback[0].FeedbackType)

	// 已有结论的提交不再接受评审
	_, err = e.submission.Approve(submission.ID, claimsFor(mentor), "A")
	assert.ErrorIs(t, err, util.ErrInvalidState)
}

func TestRequestRevisionLoopsAssignment(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)
	mentor := e.createUser(t, "revision-mentor", model.Mentor, "")

	submission := e.submitFor(t, buddy, assignment.ID)

	// 缺说明被拒
	_, err := e.submission.RequestRevision(submission.ID, claimsFor(mentor), "  ")
	assert.ErrorIs(t, err, util.ErrInvalidState)

	revised, err := e.submission.RequestRevision(submission.ID, claimsFor(mentor), "缺少单元测试")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewNeedsRevision, revised.ReviewStatus)

	reloaded, err := e.assignmentRepo.FindByID(assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentInProgress, reloaded.Status)

	feedback, err := e.submissionRepo.FindFeedbackBySubmission(submission.ID)
	require.NoError(t, err)
	require.Len(t, feedback, 1)
	assert.Equal(t, model.FeedbackRevisionRequest, feedback[0].FeedbackType)
}

func TestRejectResetsAssignment(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)
	mentor := e.createUser(t, "reject-mentor", model.Mentor, "")

	submission := e.submitFor(t, buddy, assignment.ID)

	rejected, err := e.submission.Reject(submission.ID, claimsFor(mentor), "方向完全不对")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewRejected, rejected.ReviewStatus)

	reloaded, err := e.assignmentRepo.FindByID(assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentNotStarted, reloaded.Status)
	assert.Nil(t, reloaded.StartedAt)

	feedback, err := e.submissionRepo.FindFeedbackBySubmission(submission.ID)
	require.NoError(t, err)
	require.Len(t, feedback, 1)
	assert.Equal(t, model.FeedbackRejection, feedback[0].FeedbackType)
}

func TestReviewRequiresStaff(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)

	submission := e.submitFor(t, buddy, assignment.ID)

	_, err := e.submission.Approve(submission.ID, claimsFor(buddy), "A")
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestFeedbackThread(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)
	mentor := e.createUser(t, "thread-mentor", model.Mentor, "")

	submission := e.submitFor(t, buddy, assignment.ID)

	root, err := e.submission.AddFeedback(submission.ID, claimsFor(mentor), 0, model.FeedbackQuestion, "为什么选这个方案？")
	require.NoError(t, err)

	reply, err := e.submission.AddFeedback(submission.ID, claimsFor(buddy), root.ID, model.FeedbackReply, "因为性能更好")
	require.NoError(t, err)
	assert.Equal(t, root.ID, reply.ParentID)

	// 父消息不存在
	_, err = e.submission.AddFeedback(submission.ID, claimsFor(buddy), 9999, model.FeedbackReply, "???")
	assert.ErrorIs(t, err, util.ErrFeedbackNotFound)

	// 非作者非经理不能改别人的消息
	_, err = e.submission.UpdateFeedback(root.ID, claimsFor(buddy), "改掉")
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	updated, err := e.submission.UpdateFeedback(root.ID, claimsFor(mentor), "为什么选这个方案？补充一下")
	require.NoError(t, err)
	assert.Contains(t, updated.Message, "补充")
}

func TestReviewQueueFiltersByMentor(t *testing.T) {
	e := newTestEnv(t)
	e.seedCurriculum(t, model.DomainBackend, 1, 2)
	mentorA := e.createUser(t, "queue-mentor-a", model.Mentor, "")
	mentorB := e.createUser(t, "queue-mentor-b", model.Mentor, "")
	buddyA := e.createBuddy(t, "queue-buddy-a", model.DomainBackend, mentorA.ID)
	buddyB := e.createBuddy(t, "queue-buddy-b", model.DomainBackend, mentorB.ID)

	resultA, err := e.enrollment.AutoEnroll(buddyA.ID, model.DomainBackend)
	require.NoError(t, err)
	resultB, err := e.enrollment.AutoEnroll(buddyB.ID, model.DomainBackend)
	require.NoError(t, err)

	assignmentsA, err := e.assignmentRepo.FindByEnrollment(resultA.Enrollment.ID)
	require.NoError(t, err)
	assignmentsB, err := e.assignmentRepo.FindByEnrollment(resultB.Enrollment.ID)
	require.NoError(t, err)

	e.submitFor(t, buddyA, assignmentsA[0].ID)
	e.submitFor(t, buddyA, assignmentsA[1].ID)
	e.submitFor(t, buddyB, assignmentsB[0].ID)

	queueA, err := e.submission.ReviewQueue(claimsFor(mentorA))
	require.NoError(t, err)
	assert.Len(t, queueA, 2)

	queueB, err := e.submission.ReviewQueue(claimsFor(mentorB))
	require.NoError(t, err)
	assert.Len(t, queueB, 1)

	// 学员无权查看队列
	_, err = e.submission.ReviewQueue(claimsFor(buddyA))
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestSubmitVersionSurvivesDeletedPredecessor(t *testing.T) {
	e := newTestEnv(t)
	buddy, assignment := enrollOneTask(t, e)

	first := e.submitFor(t, buddy, assignment.ID)
	second, err := e.submission.Submit(assignment.ID, claimsFor(buddy), &SubmitInput{
		Title:       "solution v2",
		Description: "reworked",
		Resources:   []model.SubmissionResource{{URL: "https://git.example.com/v2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	// 删掉旧版本后行数回落到 1，版本号必须继续往前走而不是撞回 2
	require.NoError(t, e.submission.DeleteSubmission(first.ID, claimsFor(buddy)))

	third, err := e.submission.Submit(assignment.ID, claimsFor(buddy), &SubmitInput{
		Title:       "solution v3",
		Description: "reworked again",
		Resources:   []model.SubmissionResource{{URL: "https://git.example.com/v3"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, third.Version)
}
