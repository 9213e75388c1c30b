package port

type TokenPayload struct {
	MerchantID string
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock
type TokenService interface {
	CreateToken(merchantID string) (string, error)
	VerifyToken(token string) (*TokenPayload, error)
}
