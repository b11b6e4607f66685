// Package task implements task records, their persistence, and the
// visibility resolution that decides which tasks a user may see.
//
// Tasks are owned by exactly one user. Reads broaden along the
// student-teacher association (a teacher sees assigned students' tasks);
// writes never do. The write-side narrowing is enforced twice: by the
// policy check in the handler and by the owner-scoped predicates on Update
// and Delete.
package task
