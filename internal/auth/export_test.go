// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// SetPasswordVerifier swaps the bcrypt comparison used by the service.
func (service *Service) SetPasswordVerifier(verify func(plain, storedHash string) (bool, error)) {
	service.verifyPassword = verify
}
