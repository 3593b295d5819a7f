package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses duration values
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints and
// durations for limits and windows.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing

    RazorpayKeyID  string // payment gateway key id, returned to checkout clients
    RazorpaySecret string // payment gateway secret for order creation and signature checks

    JoinBefore        time.Duration // how early group/regular sessions open for joining
    ExpireAfter       time.Duration // how long the join window stays open past the scheduled end
    EnrollmentHoldTTL time.Duration // how long a pending batch seat survives without payment

    HourlyRateCents  int // per-class price for HOURLY regular upgrades
    MonthlyRateCents int // flat price for MONTHLY regular upgrades

    MeetingBaseURL string // base URL under which meeting links are minted
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Join-window
// margins, seat-hold TTL and pricing have defaults so a dev environment
// only needs the core variables.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),

        RazorpayKeyID:  must("RAZORPAY_KEY_ID"),
        RazorpaySecret: must("RAZORPAY_KEY_SECRET"),

        JoinBefore:        envDur("SESSION_JOIN_BEFORE", 5*time.Minute),
        ExpireAfter:       envDur("SESSION_EXPIRE_AFTER", 5*time.Minute),
        EnrollmentHoldTTL: envDur("ENROLLMENT_HOLD_TTL", 15*time.Minute),

        HourlyRateCents:  envInt("REGULAR_HOURLY_RATE_CENTS", 50000),
        MonthlyRateCents: envInt("REGULAR_MONTHLY_RATE_CENTS", 500000),

        MeetingBaseURL: envStr("MEETING_BASE_URL", "https://meet.jit.si"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
