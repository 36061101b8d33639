package util_test

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/spec-kit/support-insights/pkg/util"
)

var _ = Describe("ToDomainError", func() {
	It("returns nil for nil", func() {
		Expect(apperrors.ToDomainError(nil)).To(BeNil())
	})

	It("keeps a wrapped domain error", func() {
		conflict := apperrors.NewConflict("sync already running", nil)

		domainErr := apperrors.ToDomainError(fmt.Errorf("trigger: %w", conflict))

		Expect(domainErr.HTTPStatus).To(Equal(http.StatusConflict))
		Expect(domainErr.Code).To(Equal("CONFLICT"))
	})

	It("maps missing rows to not found", func() {
		domainErr := apperrors.ToDomainError(fmt.Errorf("load issue: %w", pgx.ErrNoRows))

		Expect(domainErr.HTTPStatus).To(Equal(http.StatusNotFound))
	})

	It("hides other causes behind an internal error", func() {
		cause := errors.New("connection reset")

		domainErr := apperrors.ToDomainError(cause)

		Expect(domainErr.HTTPStatus).To(Equal(http.StatusInternalServerError))
		Expect(domainErr.Message).To(Equal("internal server error"))
		Expect(errors.Is(domainErr, cause)).To(BeTrue())
	})
})

var _ = Describe("constructors", func() {
	It("names the missing resource", func() {
		err := apperrors.NewNotFound("issue", map[string]any{"id": "issue-001"})

		Expect(err).To(MatchError("issue not found"))
	})

	It("builds validation and auth errors", func() {
		Expect(apperrors.ToDomainError(apperrors.NewValidationError("bad", nil)).HTTPStatus).To(Equal(http.StatusBadRequest))
		Expect(apperrors.ToDomainError(apperrors.NewUnauthorized("Unauthorized")).HTTPStatus).To(Equal(http.StatusUnauthorized))
	})
})
