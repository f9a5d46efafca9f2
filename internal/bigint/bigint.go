// Package bigint implements LODA's arbitrary-precision signed integer: a
// value type with a distinguished Undefined sentinel and a configurable
// magnitude ceiling, built on math/big. Every operation is total — no
// exception escapes, out-of-domain inputs and oversize results both yield
// Undefined — and no operation mutates a receiver or argument in place, so
// a program can never observe a BigInt changing under it.
package bigint

import (
	"math/big"

	"github.com/loda-lang/loda-go/internal/limits"
)

// Int is a LODA BigInt: either a defined arbitrary-precision value or the
// Undefined sentinel. The zero value is Undefined.
type Int struct {
	v        *big.Int
	defined  bool
	overflow bool
}

// Undefined is the sentinel "out of domain" value. It propagates through
// arithmetic and aborts a write at the interpreter level.
var Undefined = Int{}

// Zero is the defined value 0.
var Zero = FromInt64(0)

// One is the defined value 1.
var One = FromInt64(1)

// FromInt64 builds a defined Int from a machine integer.
func FromInt64(v int64) Int {
	return Int{v: big.NewInt(v), defined: true}
}

// FromString parses a decimal string (optional leading sign) into a defined
// Int. Returns false if s is not a valid decimal integer literal.
func FromString(s string) (Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Undefined, false
	}
	return Int{v: v, defined: true}, true
}

// IsUndefined reports whether a is the Undefined sentinel.
func (a Int) IsUndefined() bool { return !a.defined }

// IsOverflow reports whether a is Undefined specifically because a result
// exceeded the configured magnitude ceiling, as opposed to any other
// out-of-domain condition (division by zero, negative factorial, ...). The
// interpreter uses this to report Runtime::MagnitudeExceeded distinctly
// from Runtime::ArithmeticDomain.
func (a Int) IsOverflow() bool { return !a.defined && a.overflow }

// Sign returns -1/0/1, or 0 for Undefined (callers must check IsUndefined
// first if the distinction matters).
func (a Int) Sign() int {
	if !a.defined {
		return 0
	}
	return a.v.Sign()
}

// String renders the value, or "Undefined" for the sentinel.
func (a Int) String() string {
	if !a.defined {
		return "Undefined"
	}
	return a.v.String()
}

// Int64 returns the value as an int64 and whether a was defined and
// representable as one (0 and false otherwise). Used by address
// resolution and loop-length reads.
func (a Int) Int64() (int64, bool) {
	if !a.defined || !a.v.IsInt64() {
		return 0, false
	}
	return a.v.Int64(), true
}

// Equal reports raw value equality, treating two Undefined values as equal
// and a defined value as never equal to Undefined. This is distinct from
// the Equ opcode, which has its own Undefined handling (see Equ).
func (a Int) Equal(b Int) bool {
	if a.defined != b.defined {
		return false
	}
	if !a.defined {
		return true
	}
	return a.v.Cmp(b.v) == 0
}

// CompareAbs returns -1, 0 or 1 according to whether |a| is less than,
// equal to, or greater than |b|. Used by the interpreter's loop
// termination rule (monotonic decrease under absolute value); both
// operands are expected to be defined, since Memory never stores
// Undefined values.
func (a Int) CompareAbs(b Int) int {
	if a.IsUndefined() || b.IsUndefined() {
		return 0
	}
	aAbs := new(big.Int).Abs(a.v)
	bAbs := new(big.Int).Abs(b.v)
	return aAbs.Cmp(bAbs)
}

func within(v *big.Int, lim limits.Limits) bool {
	if lim.MagnitudeDigits <= 0 {
		return true
	}
	bl := v.BitLen()
	estimate := int(float64(bl)*0.3010299957) + 2
	if estimate < lim.MagnitudeDigits-1 {
		return true
	}
	if estimate > lim.MagnitudeDigits+1 {
		return false
	}
	s := v.Text(10)
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	return len(s) <= lim.MagnitudeDigits
}

// defineOrOverflow wraps a freshly computed big.Int, turning it into an
// overflow-flagged Undefined if it exceeds the magnitude ceiling.
func defineOrOverflow(v *big.Int, lim limits.Limits) Int {
	if !within(v, lim) {
		return Int{overflow: true}
	}
	return Int{v: v, defined: true}
}

// Add returns a+b.
func (a Int) Add(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	return defineOrOverflow(new(big.Int).Add(a.v, b.v), lim)
}

// Sub returns a-b.
func (a Int) Sub(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	return defineOrOverflow(new(big.Int).Sub(a.v, b.v), lim)
}

// Mul returns a*b.
func (a Int) Mul(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	return defineOrOverflow(new(big.Int).Mul(a.v, b.v), lim)
}

// Div returns a/b truncated toward zero; b=0 yields Undefined.
func (a Int) Div(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() || b.Sign() == 0 {
		return Undefined
	}
	return defineOrOverflow(new(big.Int).Quo(a.v, b.v), lim)
}

// Mod returns a mod b with the sign of b (true modulo, not truncated
// remainder); b=0 yields Undefined.
func (a Int) Mod(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() || b.Sign() == 0 {
		return Undefined
	}
	r := new(big.Int).Rem(a.v, b.v)
	if r.Sign() != 0 && (r.Sign() < 0) != (b.v.Sign() < 0) {
		r.Add(r, b.v)
	}
	return defineOrOverflow(r, lim)
}

// Trn returns max(a-b, 0) ("truncated" non-negative difference).
func (a Int) Trn(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	d := new(big.Int).Sub(a.v, b.v)
	if d.Sign() < 0 {
		d.SetInt64(0)
	}
	return defineOrOverflow(d, lim)
}

// Dif is LODA's "if-divides" opcode: a/b if b divides a, else a. b=0
// leaves a unchanged (division by zero never occurs).
func (a Int) Dif(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	if b.v.Sign() == 0 {
		return a
	}
	q, r := new(big.Int).QuoRem(a.v, b.v, new(big.Int))
	if r.Sign() == 0 {
		return defineOrOverflow(q, lim)
	}
	return a
}

// Dir divides a by the largest power of b that divides it; b in {-1,0,1}
// yields Undefined since the repetition would never terminate (or is
// meaningless).
func (a Int) Dir(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	bAbs := new(big.Int).Abs(b.v)
	if bAbs.Cmp(big.NewInt(1)) <= 0 {
		return Undefined
	}
	if a.v.Sign() == 0 {
		return Zero
	}
	result := new(big.Int).Set(a.v)
	zero := new(big.Int)
	k := 0
	for {
		q, r := new(big.Int).QuoRem(result, bAbs, new(big.Int))
		if r.Cmp(zero) != 0 {
			break
		}
		result = q
		k++
	}
	if b.v.Sign() < 0 && k%2 != 0 {
		result = new(big.Int).Neg(result)
	}
	return defineOrOverflow(result, lim)
}

// Pow returns a^b, with 0^0=1 and a negative exponent yielding Undefined.
func (a Int) Pow(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	if b.v.Sign() < 0 {
		return Undefined
	}
	if b.v.Sign() == 0 {
		return One
	}
	if a.v.Sign() == 0 {
		return Zero
	}
	exp, ok := b.Int64()
	if !ok || exp > int64(lim.MagnitudeDigits)*4+64 {
		if a.v.CmpAbs(big.NewInt(1)) == 0 {
			// |a| = 1: the result is 1 or -1 whatever the exponent's size.
			if b.v.Bit(0) == 0 {
				return One
			}
			return a
		}
		// For |a| >= 2 an exponent this large cannot produce an in-range
		// result; treat as overflow rather than attempting the computation.
		return Int{overflow: true}
	}
	return defineOrOverflow(new(big.Int).Exp(a.v, b.v, nil), lim)
}

// Nrt returns the truncated integer b-th root of a. Requires b >= 1; for
// even b, a must be non-negative (odd roots of negatives are supported by
// sign-flipping). b<1 yields Undefined.
func (a Int) Nrt(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	n, ok := b.Int64()
	if !ok || n < 1 {
		return Undefined
	}
	if a.v.Sign() == 0 {
		return Zero
	}
	neg := a.v.Sign() < 0
	if neg && n%2 == 0 {
		return Undefined
	}
	abs := new(big.Int).Abs(a.v)
	root := nthRoot(abs, n)
	if neg {
		root.Neg(root)
	}
	return defineOrOverflow(root, lim)
}

// nthRoot computes floor(n-th root of v) for v >= 0, n >= 1, via Newton's
// method on integers.
func nthRoot(v *big.Int, n int64) *big.Int {
	if v.Sign() == 0 {
		return new(big.Int)
	}
	if n == 1 {
		return new(big.Int).Set(v)
	}
	bigN := big.NewInt(n)
	nMinus1 := big.NewInt(n - 1)
	// Initial guess: 2^(ceil(bitlen/n)).
	x := new(big.Int).Lsh(big.NewInt(1), uint(v.BitLen()/int(n)+1))
	for {
		// x1 = ((n-1)*x + v/x^(n-1)) / n
		xPow := new(big.Int).Exp(x, nMinus1, nil)
		if xPow.Sign() == 0 {
			break
		}
		t := new(big.Int).Quo(v, xPow)
		t.Add(t, new(big.Int).Mul(nMinus1, x))
		x1 := new(big.Int).Quo(t, bigN)
		if x1.Cmp(x) >= 0 {
			break
		}
		x = x1
	}
	// x may still be one too high from truncation; correct downward.
	for {
		p := new(big.Int).Exp(x, bigN, nil)
		if p.Cmp(v) <= 0 {
			break
		}
		x.Sub(x, big.NewInt(1))
	}
	for {
		x1 := new(big.Int).Add(x, big.NewInt(1))
		p := new(big.Int).Exp(x1, bigN, nil)
		if p.Cmp(v) > 0 {
			break
		}
		x = x1
	}
	return x
}

// Fac returns a! for a >= 0; negative a yields Undefined.
func (a Int) Fac(lim limits.Limits) Int {
	if a.IsUndefined() || a.v.Sign() < 0 {
		return Undefined
	}
	n, ok := a.Int64()
	if !ok {
		return Undefined
	}
	result := big.NewInt(1)
	for i := int64(2); i <= n; i++ {
		result.Mul(result, big.NewInt(i))
		if !within(result, lim) {
			return Int{overflow: true}
		}
	}
	return Int{v: result, defined: true}
}

// Gcd returns the non-negative greatest common divisor; gcd(0,0)=0.
func (a Int) Gcd(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(a.v), new(big.Int).Abs(b.v))
	return defineOrOverflow(g, lim)
}

// Bin returns the binomial coefficient C(n,k), extended to negative n via
// bin(n,k) = (-1)^k * bin(k-n-1,k) for k>=0, and 0 for k<0.
func (a Int) Bin(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	k, ok := b.Int64()
	if !ok {
		return Undefined
	}
	if k < 0 {
		return Zero
	}
	if a.v.Sign() < 0 {
		// bin(n,k) = (-1)^k * bin(k-n-1,k)
		kMinusNMinus1 := new(big.Int).Sub(big.NewInt(k), a.v)
		kMinusNMinus1.Sub(kMinusNMinus1, big.NewInt(1))
		flipped := binomialNonNeg(kMinusNMinus1, k)
		if flipped == nil {
			return Undefined
		}
		if k%2 != 0 {
			flipped.Neg(flipped)
		}
		return defineOrOverflow(flipped, lim)
	}
	res := binomialNonNeg(a.v, k)
	if res == nil {
		return Undefined
	}
	return defineOrOverflow(res, lim)
}

// binomialNonNeg computes C(n,k) for n>=0, k>=0 (0 if k>n).
func binomialNonNeg(n *big.Int, k int64) *big.Int {
	if n.Sign() < 0 || k < 0 {
		return nil
	}
	if n.IsInt64() && n.Int64() < k {
		return new(big.Int)
	}
	result := big.NewInt(1)
	cur := new(big.Int).Set(n)
	for i := int64(1); i <= k; i++ {
		result.Mul(result, cur)
		result.Quo(result, big.NewInt(i))
		cur.Sub(cur, big.NewInt(1))
	}
	return result
}

// Min returns the smaller of a and b.
func (a Int) Min(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	if a.v.Cmp(b.v) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func (a Int) Max(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	if a.v.Cmp(b.v) >= 0 {
		return a
	}
	return b
}

// boolInt renders a Go bool as the LODA 0/1 BigInt.
func boolInt(v bool) Int {
	if v {
		return One
	}
	return Zero
}

// Cmp is the equality opcode: 1 if a=b else 0. Undefined operands compare
// as not-equal.
func (a Int) Cmp(b Int) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Zero
	}
	return boolInt(a.v.Cmp(b.v) == 0)
}

// Equ is equivalent to Cmp (LODA exposes both mnemonics).
func (a Int) Equ(b Int) Int { return a.Cmp(b) }

// Neq is the negation of Cmp; Undefined compares as not-equal, i.e. Neq
// returns 1 whenever either operand is Undefined.
func (a Int) Neq(b Int) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return One
	}
	return boolInt(a.v.Cmp(b.v) != 0)
}

// Leq returns 1 if a<=b else 0; Undefined is neither <= nor >=.
func (a Int) Leq(b Int) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Zero
	}
	return boolInt(a.v.Cmp(b.v) <= 0)
}

// Geq returns 1 if a>=b else 0; Undefined is neither <= nor >=.
func (a Int) Geq(b Int) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Zero
	}
	return boolInt(a.v.Cmp(b.v) >= 0)
}

// Lex returns 1 if a<b (strict) else 0.
func (a Int) Lex(b Int) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Zero
	}
	return boolInt(a.v.Cmp(b.v) < 0)
}

// toTwosComplementBits converts v to a big.Int suitable for bitwise ops:
// math/big's And/Or/Xor already implement two's-complement semantics for
// negative operands, so this is the identity; kept as a named step for
// clarity at call sites.
func toTwosComplementBits(v *big.Int) *big.Int { return v }

// Ban returns the bitwise AND of a and b under two's-complement
// representation.
func (a Int) Ban(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	r := new(big.Int).And(toTwosComplementBits(a.v), toTwosComplementBits(b.v))
	return defineOrOverflow(r, lim)
}

// Bor returns the bitwise OR of a and b under two's-complement
// representation.
func (a Int) Bor(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	r := new(big.Int).Or(toTwosComplementBits(a.v), toTwosComplementBits(b.v))
	return defineOrOverflow(r, lim)
}

// Bxo returns the bitwise XOR of a and b under two's-complement
// representation.
func (a Int) Bxo(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	r := new(big.Int).Xor(toTwosComplementBits(a.v), toTwosComplementBits(b.v))
	return defineOrOverflow(r, lim)
}

// Dgs returns the base-10 digit sum of a non-negative a; negative a yields
// Undefined.
func (a Int) Dgs(lim limits.Limits) Int {
	if a.IsUndefined() || a.v.Sign() < 0 {
		return Undefined
	}
	s := a.v.String()
	sum := int64(0)
	for _, c := range s {
		sum += int64(c - '0')
	}
	return defineOrOverflow(big.NewInt(sum), lim)
}

// Dgr returns a with its base-10 digits reversed; negative a yields
// Undefined.
func (a Int) Dgr(lim limits.Limits) Int {
	if a.IsUndefined() || a.v.Sign() < 0 {
		return Undefined
	}
	s := a.v.String()
	rev := make([]byte, len(s))
	for i := range s {
		rev[len(s)-1-i] = s[i]
	}
	r, ok := new(big.Int).SetString(string(rev), 10)
	if !ok {
		return Undefined
	}
	return defineOrOverflow(r, lim)
}

// Log returns the largest k with b^k <= a, for a>=1, b>=2; otherwise
// Undefined.
func (a Int) Log(b Int, lim limits.Limits) Int {
	if a.IsUndefined() || b.IsUndefined() {
		return Undefined
	}
	if a.v.Sign() < 1 {
		return Undefined
	}
	base, ok := b.Int64()
	if !ok || base < 2 {
		return Undefined
	}
	bigBase := big.NewInt(base)
	k := int64(0)
	cur := big.NewInt(1)
	for {
		next := new(big.Int).Mul(cur, bigBase)
		if next.Cmp(a.v) > 0 {
			break
		}
		cur = next
		k++
	}
	return defineOrOverflow(big.NewInt(k), lim)
}
