package main

// Numeric reply codes. Names and numbers are grounded on local_user.go's
// inline comments throughout the teacher (e.g. "// 433 ERR_NICKNAMEINUSE"),
// which enumerate the RFC1459 numerics the daemon already knew how to
// send; codes the spec adds on top (473, METADATA's 760-769, MONITOR's
// 730-734, SASL's 900-908, REG's 920/921/928/929) are grounded on
// original_source/mammon's ircv3/monitor.py, ext/ircv3/sasl.py, and
// ext/ircv3/register.py.
const (
	rplWelcome       = "001"
	rplYourHost      = "002"
	rplCreated       = "003"
	rplMyInfo        = "004"
	rplISupport      = "005"

	rplUmodeIs = "221"

	rplAway = "301"

	rplUserhost = "302"

	rplWhoisUser     = "311"
	rplWhoisServer   = "312"
	rplWhoisOperator = "313"
	rplEndOfWho      = "315"
	rplWhoisIdle     = "317"
	rplEndOfWhois    = "318"
	rplWhoisChannels = "319"

	rplListStart = "321"
	rplList      = "322"
	rplListEnd   = "323"

	rplChannelModeIs = "324"

	rplNoTopic = "331"
	rplTopic   = "332"

	rplInviting = "341"

	rplWhoReply = "352"

	rplNamReply    = "353"
	rplLinks       = "364"
	rplEndOfLinks  = "365"
	rplEndOfNames  = "366"
	rplBanList     = "367"
	rplEndOfBanList = "368"
	rplWhoWasUser  = "314"
	rplEndOfWhoWas = "369"

	rplMotd        = "372"
	rplMotdStart   = "375"
	rplEndOfMotd   = "376"
	rplYoureOper   = "381"

	rplLUserClient  = "251"
	rplLUserOp      = "252"
	rplLUserUnknown = "253"
	rplLUserChannels = "254"
	rplLUserMe      = "255"

	rplLoggedIn  = "900"
	rplLoggedOut = "901"
	rplSaslSuccess = "903"
	errSaslFail    = "904"
	errSaslTooLong = "905"
	errSaslAborted = "906"
	errSaslAlready = "907"
	rplSaslMechs   = "908"

	errNoSuchNick    = "401"
	errNoSuchServer  = "402"
	errNoSuchChannel = "403"
	errCannotSendToChan = "404"
	errNoRecipient   = "411"
	errNoTextToSend  = "412"

	errUnknownCommand = "421"
	errNoMotd         = "422"

	errNoNicknameGiven = "431"
	errErroneousNick   = "432"
	errNicknameInUse   = "433"

	errUserNotInChannel = "441"
	errNotOnChannel     = "442"
	errUserOnChannel    = "443"

	errNotRegistered = "451"

	errNeedMoreParams  = "461"
	errAlreadyRegistred = "462"
	errPasswdMismatch  = "464"
	errYoureBannedCreep = "465"

	errChannelIsFull    = "471"
	errUnknownMode      = "472"
	errInviteOnlyChan   = "473"
	errBannedFromChan   = "474"
	errBadChannelKey    = "475"

	errNoPrivileges    = "481"
	errChanOPrivsNeeded = "482"

	errUModeUnknownFlag = "501"
	errUsersDontMatch   = "502"

	rplMonOnline   = "730"
	rplMonOffline  = "731"
	rplMonList     = "732"
	rplEndOfMonList = "733"
	errMonListFull = "734"

	rplWhoisRegNick = "307"
	rplWhoisAccount = "330"

	rplMetadataKeyValue = "761"
	rplMetadataEnd      = "762"
	errMetadataLimit    = "764"
	errMetadataSyntax   = "765"
	errKeyInvalid       = "766"
	errKeyNotSet        = "767"
	errKeyNoPermission  = "768"
	errNoMatchingKey    = "769"

	rplRegistered              = "920"
	errAccountExists           = "921"
	errRegInvalidCredType      = "928"
	errRegInvalidCallback      = "929"
)
