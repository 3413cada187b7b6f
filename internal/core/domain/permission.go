package domain

// Permission predicates over already-loaded entities. Services call these on
// every mutating request.

func IsCourseOwner(c *Course, userID int64) bool {
	return c != nil && c.CreatorID == userID
}

func IsInstructorOf(c *Course, userID int64) bool {
	return c != nil && c.Instructors.Has(userID)
}

func CanEditCourse(c *Course, userID int64) bool { return IsCourseOwner(c, userID) }

func CanDeleteCourse(c *Course, userID int64) bool { return IsCourseOwner(c, userID) }

func CanInvite(c *Course, userID int64) bool { return IsCourseOwner(c, userID) }

func CanCreateLesson(c *Course, userID int64) bool { return IsInstructorOf(c, userID) }

// CanEditOrDeleteLesson allows the lesson's author and the course owner.
func CanEditOrDeleteLesson(l *Lesson, c *Course, userID int64) bool {
	if l == nil || c == nil {
		return false
	}
	return userID == l.CreatorID || userID == c.CreatorID
}

// CanRemoveInstructor rejects removing the creator, whoever asks.
func CanRemoveInstructor(c *Course, targetUserID int64) bool {
	return c != nil && targetUserID != c.CreatorID
}
