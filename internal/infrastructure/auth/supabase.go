package auth

import (
	"context"

	"github.com/nedpals/supabase-go"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/port"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// SupabaseProvider delegates identities to Supabase Auth. The service key is
// required for password changes through the admin API.
type SupabaseProvider struct {
	client *supabase.Client
	logger *zap.Logger
}

// NewSupabaseProvider creates a provider for the given project
func NewSupabaseProvider(baseURL, serviceKey string, logger *zap.Logger) (*SupabaseProvider, error) {
	client := supabase.CreateClient(baseURL, serviceKey)
	if client == nil {
		return nil, ierr.NewError("failed to create supabase client").
			WithHint("Serviço de autenticação indisponível.").
			Mark(ierr.ErrStorage)
	}
	return &SupabaseProvider{client: client, logger: logger}, nil
}

func (p *SupabaseProvider) Register(ctx context.Context, email, password string) (string, error) {
	user, err := p.client.Auth.SignUp(ctx, supabase.UserCredentials{
		Email:    email,
		Password: password,
	})
	if err != nil {
		p.logger.Error("Supabase sign up failed", zap.String("email", email), zap.Error(err))
		return "", ierr.WithError(err).
			WithMessage("supabase sign up").
			WithHint("Não foi possível criar a conta. Verifique os dados e tente novamente.").
			Mark(ierr.ErrValidation)
	}
	return user.ID, nil
}

func (p *SupabaseProvider) Authenticate(ctx context.Context, email, password string) (string, error) {
	details, err := p.client.Auth.SignIn(ctx, supabase.UserCredentials{
		Email:    email,
		Password: password,
	})
	if err != nil {
		p.logger.Info("Supabase sign in rejected", zap.String("email", email), zap.Error(err))
		return "", unauthenticated()
	}
	return details.User.ID, nil
}

func (p *SupabaseProvider) ChangePassword(ctx context.Context, userID, newPassword string) error {
	_, err := p.client.Admin.UpdateUser(ctx, userID, supabase.AdminUserParams{
		Password: lo.ToPtr(newPassword),
	})
	if err != nil {
		p.logger.Error("Supabase password update failed", zap.String("user_id", userID), zap.Error(err))
		return ierr.WithError(err).
			WithMessage("supabase update user").
			WithHint("Erro ao alterar senha.").
			Mark(ierr.ErrStorage)
	}
	return nil
}

// Verify interface compliance
var _ port.IdentityProvider = (*SupabaseProvider)(nil)
