package email

const subjectRegistrationConfirmedFmt = "Registration confirmed: %s"
