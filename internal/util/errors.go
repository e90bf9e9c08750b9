package util

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrCurriculumNotFound   = errors.New("curriculum not found")
	ErrWeekNotFound         = errors.New("curriculum week not found")
	ErrTaskTemplateNotFound = errors.New("task template not found")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrAssignmentNotFound   = errors.New("task assignment not found")
	ErrWeekProgressNotFound = errors.New("week progress not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrFeedbackNotFound     = errors.New("feedback not found")

	ErrCurriculumNotPublished = errors.New("curriculum not published")
	ErrAlreadyEnrolled        = errors.New("buddy already enrolled in this curriculum")
	ErrInvalidState           = errors.New("operation not allowed in current state")
	ErrWeekNumberTaken        = errors.New("week number already used in this curriculum")
)
